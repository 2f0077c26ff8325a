// Package model defines core data structures and types for the blog drafts application.
package model

import (
	"slices"
	"strings"
	"time"
)

type PostID string

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Post is a blog post as stored by the backend. The identifier travels as
// "_id" on the wire, matching document-store backends.
type Post struct {
	ID PostID `json:"_id"`

	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Status  Status   `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// PostInput is the body sent to the save-draft and publish endpoints.
type PostInput struct {
	ID      PostID   `json:"id,omitempty"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// IsBlank reports whether both title and content are empty or whitespace only.
func (in PostInput) IsBlank() bool {
	return strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Content) == ""
}

// ParseTags splits raw comma separated tag input, trimming each entry and
// dropping empty ones. The result is never nil.
func ParseTags(raw string) []string {
	tags := make([]string, 0)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags is the canonical text form of a tag list. ParseTags(JoinTags(t))
// returns t for any t produced by ParseTags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// FilterByStatus returns the posts with the given status, preserving order.
func FilterByStatus(posts []Post, status Status) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}

// SortByUpdated orders posts newest first.
func SortByUpdated(posts []Post) {
	slices.SortStableFunc(posts, func(a, b Post) int {
		return -a.UpdatedAt.Compare(b.UpdatedAt)
	})
}

// Clone returns a deep copy so callers can't alias the tag slice.
func (p Post) Clone() Post {
	p.Tags = slices.Clone(p.Tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}
