// Package bloglist keeps the fetched posts, the post selected for editing
// and the post open in preview.
package bloglist

import (
	"context"
	"sync"

	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/notify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	ConfirmDeletePrompt = "Are you sure you want to delete this blog?"
	MsgDeleteFailed     = "Failed to delete blog."
)

var (
	ErrUnknownPost    = errors.New("no such post in the list")
	ErrNoConfirmation = errors.New("delete needs a confirmation prompt")
)

var listLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	listLogger = l
}

type API interface {
	List(ctx context.Context) ([]model.Post, error)
	Delete(ctx context.Context, id model.PostID) error
}

// Loader receives the post chosen for editing.
type Loader interface {
	Load(post *model.Post) error
}

type List struct {
	api      API
	loader   Loader
	notifier notify.Notifier

	mu       sync.RWMutex
	posts    []model.Post
	selected model.PostID
	preview  *model.Post
}

func New(api API, loader Loader, notifier notify.Notifier) *List {
	return &List{
		api:      api,
		loader:   loader,
		notifier: notifier,
		posts:    make([]model.Post, 0),
	}
}

// FetchAll replaces the list with what the backend has. On error the list
// is left as it was.
func (l *List) FetchAll(ctx context.Context) error {
	posts, err := l.api.List(ctx)
	if err != nil {
		listLogger.Error().Err(err).Msg("Error fetching blogs")
		return errors.Wrap(err, "fetching blogs")
	}

	l.mu.Lock()
	l.posts = posts
	l.mu.Unlock()

	listLogger.Debug().Int("posts", len(posts)).Msg("Blogs fetched")
	return nil
}

// Refresh refetches the list, only logging errors. It is the hook editors
// call after a save.
func (l *List) Refresh() {
	_ = l.FetchAll(context.Background())
}

func cloneAll(posts []model.Post) []model.Post {
	out := make([]model.Post, len(posts))
	for i, p := range posts {
		out[i] = p.Clone()
	}
	return out
}

// Posts returns every fetched post in backend order.
func (l *List) Posts() []model.Post {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAll(l.posts)
}

func (l *List) Published() []model.Post {
	return model.FilterByStatus(l.Posts(), model.StatusPublished)
}

func (l *List) Drafts() []model.Post {
	return model.FilterByStatus(l.Posts(), model.StatusDraft)
}

func (l *List) find(id model.PostID) (model.Post, bool) {
	for _, p := range l.posts {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return model.Post{}, false
}

// Select marks a post as the one being edited and loads it into the editor.
func (l *List) Select(id model.PostID) error {
	l.mu.Lock()
	post, ok := l.find(id)
	if ok {
		l.selected = id
	}
	l.mu.Unlock()

	if !ok {
		return errors.Wrapf(ErrUnknownPost, "id %s", id)
	}
	return l.loader.Load(&post)
}

// Selected returns the id of the selected post, or "" when none is.
func (l *List) Selected() model.PostID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.selected
}

// Preview opens a read-only view of a post. The editor is not touched.
func (l *List) Preview(id model.PostID) (*model.Post, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	post, ok := l.find(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPost, "id %s", id)
	}
	l.preview = &post

	clone := post.Clone()
	return &clone, nil
}

func (l *List) ClosePreview() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.preview = nil
}

// Previewing returns the post open in preview, if any.
func (l *List) Previewing() (*model.Post, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.preview == nil {
		return nil, false
	}
	clone := l.preview.Clone()
	return &clone, true
}

// Delete asks confirm before deleting a post and reports whether it was
// deleted. A declined confirmation is not an error. A nil confirm is
// rejected with ErrNoConfirmation before contacting the backend.
func (l *List) Delete(ctx context.Context, id model.PostID, confirm func(prompt string) bool) (bool, error) {
	if confirm == nil {
		return false, ErrNoConfirmation
	}
	if !confirm(ConfirmDeletePrompt) {
		return false, nil
	}

	if err := l.api.Delete(ctx, id); err != nil {
		listLogger.Error().Err(err).Str("post_id", string(id)).Msg("Failed to delete blog")
		l.notifier.Error(MsgDeleteFailed)
		return false, errors.Wrapf(err, "deleting %s", id)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]model.Post, 0, len(l.posts))
	for _, p := range l.posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	l.posts = kept

	if l.selected == id {
		l.selected = ""
	}
	if l.preview != nil && l.preview.ID == id {
		l.preview = nil
	}

	listLogger.Info().Str("post_id", string(id)).Msg("Blog deleted")
	return true, nil
}
