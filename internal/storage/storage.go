package storage

import "errors"

var (
	ErrImageNotFound = errors.New("image not found")
	ErrPostNotFound  = errors.New("blog post not found")
	ErrTagNotFound   = errors.New("tag not found")
	ErrSlugTaken     = errors.New("slug already taken")
)

var (
	ErrFileMissing  = errors.New("file is missing")
	ErrFileTooLarge = errors.New("file size exceeds limit")
)
