// Package editor holds the working copy of the post being written and keeps
// it saved as a draft while the user types.
//
// All state is owned by one goroutine. Exported methods hand closures to it
// and wait for them to run, so an Editor is safe for concurrent use. Backend
// requests are made outside that goroutine and their results are applied
// back through it.
package editor

import (
	"context"
	"sync"
	"time"

	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/notify"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultAutosaveInterval = 30 * time.Second
	DefaultDebounce         = 5 * time.Second
)

// Notification texts.
const (
	MsgAutosaved      = "Auto-saved!"
	MsgAutosaveFailed = "Auto-save failed!"
	MsgRequired       = "Title and content are required"
	MsgPublished      = "Published!"
	MsgPublishFailed  = "Failed to publish."
)

var (
	ErrValidation = errors.New("validation failed")
	ErrClosed     = errors.New("editor closed")
)

var editorLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

// Backend is the part of the blogs API the editor writes to.
type Backend interface {
	SaveDraft(ctx context.Context, in model.PostInput) (*model.Post, error)
	Publish(ctx context.Context, in model.PostInput) (*model.Post, error)
}

type Options struct {
	AutosaveInterval time.Duration
	Debounce         time.Duration

	// Defaults to the real clock.
	Clock clockwork.Clock

	// OnSaved runs after every successful autosave or publish so that post
	// lists can refresh. It is called outside the editor goroutine.
	OnSaved func()
}

// WorkingCopy is the in-memory form being edited. ID is empty until the
// first successful save.
type WorkingCopy struct {
	ID      model.PostID
	Title   string
	Content string
	TagsRaw string
}

// Input builds the request body sent to the backend.
func (w WorkingCopy) Input() model.PostInput {
	return model.PostInput{
		ID:      w.ID,
		Title:   w.Title,
		Content: w.Content,
		Tags:    model.ParseTags(w.TagsRaw),
	}
}

func (w WorkingCopy) IsBlank() bool {
	return w.Input().IsBlank()
}

type Editor struct {
	backend  Backend
	notifier notify.Notifier
	opts     Options
	clock    clockwork.Clock

	ops       chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// Owned by run.
	wc        WorkingCopy
	session   uint64
	ticker    clockwork.Ticker
	debounce  clockwork.Timer
	debounceC <-chan time.Time
}

// New starts an editor with an empty working copy. The periodic autosave
// runs until Close.
func New(backend Backend, notifier notify.Notifier, opts Options) *Editor {
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = DefaultAutosaveInterval
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	e := &Editor{
		backend:  backend,
		notifier: notifier,
		opts:     opts,
		clock:    opts.Clock,
		ops:      make(chan func()),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	e.ticker = e.clock.NewTicker(opts.AutosaveInterval)

	go e.run()
	return e
}

func (e *Editor) run() {
	defer close(e.done)

	for {
		select {
		case op := <-e.ops:
			op()
		case <-e.ticker.Chan():
			e.fire("interval")
		case <-e.debounceC:
			e.debounce, e.debounceC = nil, nil
			e.fire("debounce")
		case <-e.quit:
			e.ticker.Stop()
			e.stopDebounce()
			return
		}
	}
}

// do runs fn on the editor goroutine and waits for it.
func (e *Editor) do(fn func()) error {
	ran := make(chan struct{})
	select {
	case e.ops <- func() { fn(); close(ran) }:
	case <-e.done:
		return ErrClosed
	}
	<-ran
	return nil
}

// Close stops both autosave triggers. Requests already sent are left to
// finish, but their results no longer change the working copy.
func (e *Editor) Close() {
	e.closeOnce.Do(func() {
		close(e.quit)
	})
	<-e.done
}

// Snapshot returns the current working copy.
func (e *Editor) Snapshot() WorkingCopy {
	var wc WorkingCopy
	if err := e.do(func() { wc = e.wc }); err != nil {
		// run has exited; nothing writes e.wc any more.
		return e.wc
	}
	return wc
}

func (e *Editor) snapshot() (WorkingCopy, uint64, error) {
	var wc WorkingCopy
	var session uint64
	err := e.do(func() {
		wc = e.wc
		session = e.session
	})
	return wc, session, err
}

// Load replaces the working copy with post, or clears it when post is nil.
// It starts a new editing session: results of saves started before it no
// longer apply.
func (e *Editor) Load(post *model.Post) error {
	next := WorkingCopy{}
	if post != nil {
		next = WorkingCopy{
			ID:      post.ID,
			Title:   post.Title,
			Content: post.Content,
			TagsRaw: model.JoinTags(post.Tags),
		}
	}

	return e.do(func() {
		e.session++
		e.replace(next)
		editorLogger.Debug().Str("post_id", string(next.ID)).Uint64("session", e.session).Msg("Working copy loaded")
	})
}

func (e *Editor) SetTitle(title string) error {
	return e.edit(func(wc *WorkingCopy) { wc.Title = title })
}

func (e *Editor) SetContent(content string) error {
	return e.edit(func(wc *WorkingCopy) { wc.Content = content })
}

// SetTags sets the raw comma separated tag text.
func (e *Editor) SetTags(raw string) error {
	return e.edit(func(wc *WorkingCopy) { wc.TagsRaw = raw })
}

func (e *Editor) edit(change func(*WorkingCopy)) error {
	return e.do(func() {
		next := e.wc
		change(&next)
		e.replace(next)
	})
}

// replace swaps the working copy and restarts the debounce timer if any
// edited field changed. Must run on the editor goroutine.
func (e *Editor) replace(next WorkingCopy) {
	changed := next.Title != e.wc.Title ||
		next.Content != e.wc.Content ||
		next.TagsRaw != e.wc.TagsRaw

	e.wc = next
	if changed {
		e.restartDebounce()
	}
}

func (e *Editor) restartDebounce() {
	e.stopDebounce()
	e.debounce = e.clock.NewTimer(e.opts.Debounce)
	e.debounceC = e.debounce.Chan()
}

func (e *Editor) stopDebounce() {
	if e.debounce != nil {
		e.debounce.Stop()
	}
	e.debounce, e.debounceC = nil, nil
}

// fire starts a timer triggered autosave with the state as it is now. Must
// run on the editor goroutine.
func (e *Editor) fire(trigger string) {
	wc, session := e.wc, e.session
	if wc.IsBlank() {
		return
	}

	editorLogger.Debug().Str("trigger", trigger).Str("post_id", string(wc.ID)).Msg("Autosave triggered")
	go func() {
		_ = e.autosave(context.Background(), wc, session)
	}()
}

// Autosave saves the working copy as a draft now. A blank working copy is
// skipped without contacting the backend.
func (e *Editor) Autosave(ctx context.Context) error {
	wc, session, err := e.snapshot()
	if err != nil {
		return err
	}
	return e.autosave(ctx, wc, session)
}

func (e *Editor) autosave(ctx context.Context, wc WorkingCopy, session uint64) error {
	if wc.IsBlank() {
		return nil
	}

	post, err := e.backend.SaveDraft(ctx, wc.Input())
	if err != nil {
		editorLogger.Error().Err(err).Str("post_id", string(wc.ID)).Msg("Autosave failed")
		e.notifier.Error(MsgAutosaveFailed)
		return errors.Wrap(err, "autosaving")
	}

	// A closed editor just drops the id.
	_ = e.do(func() {
		if e.session != session {
			editorLogger.Debug().Str("post_id", string(post.ID)).Msg("Discarding save result of an earlier session")
			return
		}
		e.wc.ID = post.ID
	})

	editorLogger.Info().Str("post_id", string(post.ID)).Msg("Draft auto-saved")
	e.notifier.Success(MsgAutosaved)
	e.signalSaved()
	return nil
}

// Publish publishes the working copy and clears it on success. Title and
// content must both be non-blank; otherwise it returns ErrValidation without
// contacting the backend.
func (e *Editor) Publish(ctx context.Context) error {
	wc, session, err := e.snapshot()
	if err != nil {
		return err
	}

	in := wc.Input()
	if err := model.ValidateForPublish(in); err != nil {
		e.notifier.Error(MsgRequired)
		return errors.Wrap(ErrValidation, err.Error())
	}

	post, err := e.backend.Publish(ctx, in)
	if err != nil {
		editorLogger.Error().Err(err).Str("post_id", string(wc.ID)).Msg("Publish failed")
		e.notifier.Error(MsgPublishFailed)
		return errors.Wrap(err, "publishing")
	}

	_ = e.do(func() {
		// The user loaded another post meanwhile; clearing would discard it.
		if e.session != session {
			return
		}
		e.session++
		e.replace(WorkingCopy{})
	})

	editorLogger.Info().Str("post_id", string(post.ID)).Msg("Post published")
	e.notifier.Success(MsgPublished)
	e.signalSaved()
	return nil
}

func (e *Editor) signalSaved() {
	if e.opts.OnSaved != nil {
		e.opts.OnSaved()
	}
}
