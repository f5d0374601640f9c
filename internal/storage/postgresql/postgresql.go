package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

type Storage struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, storagePath string) (*Storage, error) {
	const op = "storage.postgresql.New"

	db, err := pgxpool.Connect(ctx, storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Pool() *pgxpool.Pool {
	return s.db
}

func (s *Storage) Stop() {
	s.db.Close()
}

// Bootstrap applies the schema. Mirrors the standalone migration script so
// a fresh database is usable without external tooling.
func (s *Storage) Bootstrap(ctx context.Context) error {
	const op = "storage.postgresql.Bootstrap"

	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Schema is shared with the repository integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS images (
	id SERIAL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	object_key VARCHAR(255) NOT NULL,
	object_url TEXT,
	description TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tags (
	id SERIAL PRIMARY KEY,
	name VARCHAR(100) NOT NULL UNIQUE,
	slug VARCHAR(100) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS image_tags (
	id SERIAL PRIMARY KEY,
	image_id INTEGER NOT NULL REFERENCES images(id) ON DELETE CASCADE,
	tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_image_tags_image_id ON image_tags(image_id);
CREATE INDEX IF NOT EXISTS idx_image_tags_tag_id ON image_tags(tag_id);

CREATE TABLE IF NOT EXISTS blog_posts (
	id SERIAL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	slug VARCHAR(255) NOT NULL UNIQUE,
	content TEXT NOT NULL,
	excerpt TEXT NOT NULL,
	cover_image VARCHAR(255) NOT NULL,
	published_at TIMESTAMP NOT NULL DEFAULT NOW(),
	created_at TIMESTAMP NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
	author_name VARCHAR(100) NOT NULL,
	author_avatar VARCHAR(255)
);

CREATE TABLE IF NOT EXISTS blog_tags (
	id SERIAL PRIMARY KEY,
	name VARCHAR(50) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS blog_posts_tags (
	id SERIAL PRIMARY KEY,
	post_id INTEGER NOT NULL REFERENCES blog_posts(id) ON DELETE CASCADE,
	tag_id INTEGER NOT NULL REFERENCES blog_tags(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_blog_posts_tags_post_id ON blog_posts_tags(post_id);
`
