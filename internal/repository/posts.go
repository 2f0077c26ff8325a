package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/debemdeboas/draftdesk/internal/cache"
	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Posts implements PostRepository over any Store, keeping every post cached
// in memory after Init.
type Posts struct { // implements PostRepository
	store      Store
	postsCache *cache.Cache[model.PostID, *model.Post]

	// Serialises read-modify-write of a single post.
	mu sync.Mutex

	changeNotifier func(model.PostID)

	now   func() time.Time
	newID func() model.PostID
}

func NewPosts(store Store) *Posts {
	return &Posts{
		store:      store,
		postsCache: cache.NewCache[model.PostID, *model.Post](),

		now:   func() time.Time { return time.Now().UTC() },
		newID: func() model.PostID { return model.PostID(uuid.New().String()) },
	}
}

func (r *Posts) Init(ctx context.Context) error {
	posts, err := r.store.All(ctx)
	if err != nil {
		return errors.Wrap(err, "loading posts")
	}

	postMap := make(map[model.PostID]*model.Post, len(posts))
	for i := range posts {
		postMap[posts[i].ID] = &posts[i]
	}
	r.postsCache.SetTo(postMap)

	repoLogger.Info().Int("posts", len(posts)).Msg("Posts loaded")
	return nil
}

func (r *Posts) SetChangeNotifier(notifier func(model.PostID)) {
	r.changeNotifier = notifier
}

func (r *Posts) notifyChange(id model.PostID) {
	if r.changeNotifier != nil {
		r.changeNotifier(id)
	}
}

// List returns copies of all posts, most recently updated first.
func (r *Posts) List(ctx context.Context) ([]model.Post, error) {
	cached := r.postsCache.Values()
	posts := make([]model.Post, 0, len(cached))
	for _, p := range cached {
		posts = append(posts, p.Clone())
	}
	model.SortByUpdated(posts)
	return posts, nil
}

func (r *Posts) Get(ctx context.Context, id model.PostID) (*model.Post, error) {
	post, ok := r.postsCache.Get(id)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	clone := post.Clone()
	return &clone, nil
}

// SaveDraft creates or updates a post. An existing published post keeps its
// status: drafts never move back from published.
func (r *Posts) SaveDraft(ctx context.Context, in model.PostInput) (*model.Post, error) {
	return r.upsert(ctx, in, model.StatusDraft)
}

// Publish creates or updates a post and marks it published.
func (r *Posts) Publish(ctx context.Context, in model.PostInput) (*model.Post, error) {
	return r.upsert(ctx, in, model.StatusPublished)
}

func (r *Posts) upsert(ctx context.Context, in model.PostInput, status model.Status) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	post := &model.Post{
		ID:        in.ID,
		Title:     in.Title,
		Content:   in.Content,
		Tags:      slices.Clone(in.Tags),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}

	created := true
	if post.ID == "" {
		post.ID = r.newID()
	} else if existing, ok := r.postsCache.Get(post.ID); ok {
		created = false
		post.CreatedAt = existing.CreatedAt
		if existing.IsPublished() {
			post.Status = model.StatusPublished
		}
	}

	if err := r.store.Put(ctx, post); err != nil {
		return nil, errors.Wrapf(err, "storing post %s", post.ID)
	}
	r.postsCache.Set(post.ID, post)

	repoLogger.Info().
		Str("post_id", string(post.ID)).
		Str("title", post.Title).
		Str("status", string(post.Status)).
		Bool("created", created).
		Msg("Post saved")

	r.notifyChange(post.ID)

	clone := post.Clone()
	return &clone, nil
}

func (r *Posts) Delete(ctx context.Context, id model.PostID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Remove(ctx, id); err != nil {
		return errors.Wrapf(err, "deleting post %s", id)
	}
	r.postsCache.Delete(id)

	repoLogger.Info().Str("post_id", string(id)).Msg("Post deleted")

	r.notifyChange(id)
	return nil
}
