package models

import "time"

// Image is a gallery image stored in object storage with its metadata row.
type Image struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ObjectKey   string    `db:"object_key" json:"object_key"`
	ObjectURL   string    `db:"object_url" json:"object_url"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
	Tags        []Tag     `json:"tags"`
}

// Tag is shared across images; the slug is the normalized unique form
// of the name.
type Tag struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug,omitempty"`
}

// TagWithCount carries a tag plus how many distinct images reference it.
// Orphan tags show up with a zero count.
type TagWithCount struct {
	Tag
	ImageCount int64 `db:"image_count" json:"image_count"`
}
