package bloglist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/notify"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	posts     []model.Post
	listErr   error
	deleteErr error
	deleted   []model.PostID
}

func (f *fakeAPI) List(ctx context.Context) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Post, len(f.posts))
	for i, p := range f.posts {
		out[i] = p.Clone()
	}
	return out, nil
}

func (f *fakeAPI) Delete(ctx context.Context, id model.PostID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

type fakeLoader struct {
	loaded []*model.Post
}

func (f *fakeLoader) Load(post *model.Post) error {
	f.loaded = append(f.loaded, post)
	return nil
}

func samplePosts() []model.Post {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return []model.Post{
		{ID: "a", Title: "A", Content: "<p>a</p>", Tags: []string{"x"}, Status: model.StatusPublished, UpdatedAt: now},
		{ID: "b", Title: "B", Status: model.StatusDraft, Tags: []string{}, UpdatedAt: now.Add(time.Hour)},
		{ID: "c", Title: "C", Status: model.StatusDraft, Tags: []string{}, UpdatedAt: now.Add(2 * time.Hour)},
	}
}

func newTestList(t *testing.T) (*List, *fakeAPI, *fakeLoader, *notify.Recorder) {
	t.Helper()

	api := &fakeAPI{posts: samplePosts()}
	loader := &fakeLoader{}
	rec := &notify.Recorder{}
	l := New(api, loader, rec)
	require.NoError(t, l.FetchAll(context.Background()))
	return l, api, loader, rec
}

func ids(posts []model.Post) []model.PostID {
	out := make([]model.PostID, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestFetchAllAndPartition(t *testing.T) {
	l, _, _, _ := newTestList(t)

	assert.Equal(t, []model.PostID{"a", "b", "c"}, ids(l.Posts()))
	assert.Equal(t, []model.PostID{"a"}, ids(l.Published()))
	assert.Equal(t, []model.PostID{"b", "c"}, ids(l.Drafts()))
}

func TestFetchAllReplacesWholesale(t *testing.T) {
	l, api, _, _ := newTestList(t)

	api.mu.Lock()
	api.posts = []model.Post{{ID: "z", Status: model.StatusDraft}}
	api.mu.Unlock()

	l.Refresh()
	assert.Equal(t, []model.PostID{"z"}, ids(l.Posts()))
}

func TestFetchAllErrorKeepsList(t *testing.T) {
	l, api, _, _ := newTestList(t)
	api.listErr = errors.New("offline")

	err := l.FetchAll(context.Background())
	require.Error(t, err)
	assert.Len(t, l.Posts(), 3)
}

func TestSelectLoadsEditor(t *testing.T) {
	l, _, loader, _ := newTestList(t)

	require.NoError(t, l.Select("a"))
	assert.Equal(t, model.PostID("a"), l.Selected())
	require.Len(t, loader.loaded, 1)
	assert.Equal(t, "A", loader.loaded[0].Title)

	err := l.Select("missing")
	assert.True(t, errors.Is(err, ErrUnknownPost))
	assert.Equal(t, model.PostID("a"), l.Selected())
	assert.Len(t, loader.loaded, 1)
}

func TestPreviewLeavesEditorAlone(t *testing.T) {
	l, _, loader, _ := newTestList(t)

	_, ok := l.Previewing()
	assert.False(t, ok)

	post, err := l.Preview("a")
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>", post.Content)

	got, ok := l.Previewing()
	require.True(t, ok)
	assert.Equal(t, model.PostID("a"), got.ID)
	assert.Empty(t, loader.loaded)
	assert.Empty(t, l.Selected())

	l.ClosePreview()
	_, ok = l.Previewing()
	assert.False(t, ok)

	_, err = l.Preview("missing")
	assert.True(t, errors.Is(err, ErrUnknownPost))
}

func TestDeleteDeclined(t *testing.T) {
	l, api, _, _ := newTestList(t)

	var prompt string
	deleted, err := l.Delete(context.Background(), "a", func(p string) bool {
		prompt = p
		return false
	})
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, ConfirmDeletePrompt, prompt)
	assert.Empty(t, api.deleted)
	assert.Len(t, l.Posts(), 3)
}

func TestDeleteSelectedClearsSelectionOnly(t *testing.T) {
	l, api, loader, rec := newTestList(t)
	yes := func(string) bool { return true }

	require.NoError(t, l.Select("b"))
	_, err := l.Preview("a")
	require.NoError(t, err)

	deleted, err := l.Delete(context.Background(), "b", yes)
	require.NoError(t, err)
	assert.True(t, deleted)

	assert.Equal(t, []model.PostID{"b"}, api.deleted)
	assert.Equal(t, []model.PostID{"a", "c"}, ids(l.Posts()))
	assert.Empty(t, l.Selected())

	// The preview showed another post and stays open.
	got, ok := l.Previewing()
	require.True(t, ok)
	assert.Equal(t, model.PostID("a"), got.ID)

	// The editor was not reset.
	assert.Len(t, loader.loaded, 1)
	assert.Empty(t, rec.Messages())
}

func TestDeletePreviewedClosesPreview(t *testing.T) {
	l, _, _, _ := newTestList(t)

	require.NoError(t, l.Select("c"))
	_, err := l.Preview("a")
	require.NoError(t, err)

	_, err = l.Delete(context.Background(), "a", func(string) bool { return true })
	require.NoError(t, err)

	_, ok := l.Previewing()
	assert.False(t, ok)
	assert.Equal(t, model.PostID("c"), l.Selected())
}

func TestDeleteFailureKeepsList(t *testing.T) {
	l, api, _, rec := newTestList(t)
	api.deleteErr = errors.New("500")

	require.NoError(t, l.Select("a"))
	deleted, err := l.Delete(context.Background(), "a", func(string) bool { return true })
	require.Error(t, err)
	assert.False(t, deleted)

	assert.Len(t, l.Posts(), 3)
	assert.Equal(t, model.PostID("a"), l.Selected())
	assert.Equal(t, []notify.Message{{Level: notify.LevelError, Text: MsgDeleteFailed}}, rec.Messages())
}

func TestPostsAreCopies(t *testing.T) {
	l, _, _, _ := newTestList(t)

	posts := l.Posts()
	posts[0].Title = "changed"
	posts[0].Tags[0] = "changed"

	again := l.Posts()
	assert.Equal(t, "A", again[0].Title)
	assert.Equal(t, []string{"x"}, again[0].Tags)
}

func TestDeleteWithoutConfirmationIsRejected(t *testing.T) {
	l, api, _, rec := newTestList(t)

	deleted, err := l.Delete(context.Background(), "a", nil)
	assert.ErrorIs(t, err, ErrNoConfirmation)
	assert.False(t, deleted)

	assert.Empty(t, api.deleted)
	assert.Len(t, l.Posts(), 3)
	assert.Empty(t, rec.Messages())
}
