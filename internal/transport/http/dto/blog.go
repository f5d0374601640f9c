package dto

import (
	"time"

	"henna_gallery/internal/domain/models"
)

type PostAuthor struct {
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
}

type CreateBlogPostRequest struct {
	Title       string      `json:"title" validate:"required,max=255"`
	Slug        string      `json:"slug" validate:"required,slug,max=255"`
	Content     string      `json:"content" validate:"required"`
	Excerpt     string      `json:"excerpt,omitempty"`
	CoverImage  string      `json:"coverImage,omitempty"`
	PublishedAt *time.Time  `json:"publishedAt,omitempty"`
	Author      *PostAuthor `json:"author,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

type UpdateBlogPostRequest struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,max=255"`
	Slug        *string     `json:"slug,omitempty" validate:"omitempty,slug,max=255"`
	Content     *string     `json:"content,omitempty"`
	Excerpt     *string     `json:"excerpt,omitempty"`
	CoverImage  *string     `json:"coverImage,omitempty"`
	PublishedAt *time.Time  `json:"publishedAt,omitempty"`
	Author      *PostAuthor `json:"author,omitempty"`
	// Tags replaces the whole tag set when present; nil leaves it alone.
	Tags []string `json:"tags,omitempty"`
}

type BlogListResponse struct {
	Data       []models.BlogPost `json:"data"`
	Pagination Pagination        `json:"pagination"`
}
