package repository

import (
	"context"
	"database/sql"

	"github.com/debemdeboas/draftdesk/internal/db"
	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/util"
	"github.com/debemdeboas/draftdesk/internal/util/compression"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// DBStore keeps posts in SQL with compressed bodies.
type DBStore struct { // implements Store
	db         db.DB
	compressor compression.Compressor
}

func NewDBStore(db db.DB, compressor compression.Compressor) *DBStore {
	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}
	return &DBStore{
		db:         db,
		compressor: compressor,
	}
}

func (s *DBStore) All(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.Query(ctx, `SELECT id, title, content, tags, status, created_at, updated_at FROM posts`)
	if err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		var post model.Post
		var compressed []byte
		var tags string
		var createdAt, updatedAt sql.NullTime

		if err := rows.Scan(&post.ID, &post.Title, &compressed, &tags, &post.Status, &createdAt, &updatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning post")
		}

		if len(compressed) > 0 {
			content, err := s.compressor.Decompress(compressed)
			if err != nil {
				return nil, errors.Wrapf(err, "decompressing post %s", post.ID)
			}
			post.Content = string(content)
		}

		if err := json.Unmarshal([]byte(tags), &post.Tags); err != nil {
			return nil, errors.Wrapf(err, "decoding tags of post %s", post.ID)
		}
		if post.Tags == nil {
			post.Tags = []string{}
		}

		post.CreatedAt = createdAt.Time.UTC()
		post.UpdatedAt = updatedAt.Time.UTC()
		if !updatedAt.Valid {
			post.UpdatedAt = post.CreatedAt
		}

		posts = append(posts, post)
	}

	return posts, errors.Wrap(rows.Err(), "iterating posts")
}

func (s *DBStore) Put(ctx context.Context, post *model.Post) error {
	compressed, err := s.compressor.Compress([]byte(post.Content))
	if err != nil {
		return errors.Wrap(err, "compressing content")
	}

	tags, err := json.Marshal(post.Tags)
	if err != nil {
		return errors.Wrap(err, "encoding tags")
	}
	if post.Tags == nil {
		tags = []byte("[]")
	}

	res, err := s.db.Exec(ctx, `
INSERT INTO posts (id, title, content, content_hash, tags, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    content = excluded.content,
    content_hash = excluded.content_hash,
    tags = excluded.tags,
    status = excluded.status,
    updated_at = excluded.updated_at`,
		post.ID, post.Title, compressed, util.ContentHashString(post.Content), string(tags),
		post.Status, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "saving post")
	}

	repoLogger.Debug().Interface("result", res).Str("post_id", string(post.ID)).Msg("Post stored")
	return nil
}

func (s *DBStore) Remove(ctx context.Context, id model.PostID) error {
	res, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "deleting post")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting post")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
