// Package repository holds the backend's post storage and the draft/publish
// rules applied on top of it.
package repository

import (
	"context"

	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("post not found")

var repoLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

// Store persists whole posts. It applies no lifecycle rules.
type Store interface {
	All(ctx context.Context) ([]model.Post, error)
	Put(ctx context.Context, post *model.Post) error
	// Remove returns ErrNotFound when nothing was stored under id.
	Remove(ctx context.Context, id model.PostID) error
}

type PostRepository interface {
	Init(ctx context.Context) error

	List(ctx context.Context) ([]model.Post, error)
	Get(ctx context.Context, id model.PostID) (*model.Post, error)

	SaveDraft(ctx context.Context, in model.PostInput) (*model.Post, error)
	Publish(ctx context.Context, in model.PostInput) (*model.Post, error)
	Delete(ctx context.Context, id model.PostID) error

	// SetChangeNotifier sets a function that will be called after a post is written or deleted.
	SetChangeNotifier(notifier func(model.PostID))
}
