package repository

import (
	"context"
	"sync"

	"github.com/debemdeboas/draftdesk/internal/model"
)

// MemoryStore keeps posts for the life of the process.
type MemoryStore struct { // implements Store
	posts sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) All(ctx context.Context) ([]model.Post, error) {
	posts := make([]model.Post, 0)
	m.posts.Range(func(_, value any) bool {
		posts = append(posts, value.(model.Post).Clone())
		return true
	})
	return posts, nil
}

func (m *MemoryStore) Put(ctx context.Context, post *model.Post) error {
	m.posts.Store(post.ID, post.Clone())
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, id model.PostID) error {
	if _, ok := m.posts.LoadAndDelete(id); !ok {
		return ErrNotFound
	}
	return nil
}
