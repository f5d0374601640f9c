package dto

import (
	"mime/multipart"
	"strings"

	"henna_gallery/internal/domain/models"
)

type ImageUploadInput struct {
	File        *multipart.FileHeader `json:"-" form:"file"`
	Description string                `json:"description" form:"description"`
	// Tags is the raw comma-separated tag list from the upload form.
	Tags string `json:"tags" form:"tags"`
}

// TagNames splits the comma-separated form value into trimmed, non-empty
// tag names.
func (input ImageUploadInput) TagNames() []string {
	parts := strings.Split(input.Tags, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}

type ReplaceTagsRequest struct {
	TagIDs []int64 `json:"tagIds" validate:"required"`
}

type ImageListResponse struct {
	Data       []models.Image `json:"data"`
	Pagination Pagination     `json:"pagination"`
}
