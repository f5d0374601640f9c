package models

import "time"

type BlogPost struct {
	ID           int64     `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Slug         string    `db:"slug" json:"slug"`
	Content      string    `db:"content" json:"content"`
	Excerpt      string    `db:"excerpt" json:"excerpt"`
	CoverImage   string    `db:"cover_image" json:"cover_image"`
	PublishedAt  time.Time `db:"published_at" json:"published_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
	AuthorName   string    `db:"author_name" json:"author_name"`
	AuthorAvatar *string   `db:"author_avatar" json:"author_avatar,omitempty"`
	Tags         []BlogTag `json:"tags"`
}

// BlogTag is the blog-side tag family; unlike gallery tags it keys on
// the unique name alone.
type BlogTag struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
