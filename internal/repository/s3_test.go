package repository

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/debemdeboas/draftdesk/internal/config"
	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/util/compression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "drafts"

// fakeS3 answers the path-style requests S3Store makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

type listEntry struct {
	Key  string `xml:"Key"`
	Size int    `xml:"Size"`
}

type listResult struct {
	XMLName     xml.Name    `xml:"ListBucketResult"`
	Name        string      `xml:"Name"`
	Prefix      string      `xml:"Prefix"`
	KeyCount    int         `xml:"KeyCount"`
	MaxKeys     int         `xml:"MaxKeys"`
	IsTruncated bool        `xml:"IsTruncated"`
	Contents    []listEntry `xml:"Contents"`
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != testBucket {
		http.Error(w, "no such bucket", http.StatusNotFound)
		return
	}

	switch {
	case r.Method == http.MethodGet && key == "":
		prefix := r.URL.Query().Get("prefix")
		res := listResult{Name: bucket, Prefix: prefix, MaxKeys: 1000}
		for k, v := range f.objects {
			if strings.HasPrefix(k, prefix) {
				res.Contents = append(res.Contents, listEntry{Key: k, Size: len(v)})
			}
		}
		sort.Slice(res.Contents, func(i, j int) bool { return res.Contents[i].Key < res.Contents[j].Key })
		res.KeyCount = len(res.Contents)
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, xml.Header)
		xml.NewEncoder(w).Encode(res)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.Header().Set("ETag", `"fake"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Write(body)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func newTestS3Store(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()

	fake := &fakeS3{objects: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3Store(context.Background(), config.S3Config{
		Bucket:    testBucket,
		Endpoint:  srv.URL,
		Region:    "auto",
		Prefix:    "blogs/",
		PathStyle: true,
	}, "key-id", "secret", compression.ZstdCompressor{})
	require.NoError(t, err)
	return store, fake
}

func TestS3StoreRoundTrip(t *testing.T) {
	store, fake := newTestS3Store(t)
	repo := newTestPosts(t, store)
	ctx := context.Background()

	first, err := repo.SaveDraft(ctx, model.PostInput{Title: "One", Content: "<p>1</p>", Tags: []string{"a"}})
	require.NoError(t, err)
	_, err = repo.Publish(ctx, model.PostInput{Title: "Two", Content: "<p>2</p>"})
	require.NoError(t, err)

	assert.Equal(t, []string{"blogs/post-1.json", "blogs/post-2.json"}, fake.keys())

	// A fresh repository reads everything back from the bucket.
	reloaded := newTestPosts(t, store)
	posts, err := reloaded.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Two", posts[0].Title)
	assert.Equal(t, model.StatusPublished, posts[0].Status)
	assert.Equal(t, []string{"a"}, posts[1].Tags)

	require.NoError(t, reloaded.Delete(ctx, first.ID))
	assert.Equal(t, []string{"blogs/post-2.json"}, fake.keys())
}

func TestS3StoreRemoveMissing(t *testing.T) {
	store, _ := newTestS3Store(t)

	err := store.Remove(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3StoreIgnoresForeignKeys(t *testing.T) {
	store, fake := newTestS3Store(t)
	fake.mu.Lock()
	fake.objects["blogs/readme.txt"] = []byte("not a post")
	fake.mu.Unlock()

	posts, err := store.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestS3StoreKey(t *testing.T) {
	store := &S3Store{prefix: "p/"}
	assert.Equal(t, "p/abc.json", store.key("abc"))
	assert.True(t, store.isPostKey("p/abc.json"))
	assert.False(t, store.isPostKey("q/abc.json"))
	assert.False(t, store.isPostKey("p/abc.txt"))
}
