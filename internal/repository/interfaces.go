package repository

import (
	"context"
	"time"

	"henna_gallery/internal/domain/models"
)

type ImageRepository interface {
	CreateImageWithTags(ctx context.Context, image models.Image, tagNames []string) (*models.Image, error)
	GetImageByID(ctx context.Context, id int64) (*models.Image, error)
	ListImages(ctx context.Context, page, pageSize int, tagFilter string) ([]models.Image, int64, error)
	ReplaceImageTags(ctx context.Context, imageID int64, tagIDs []int64) ([]models.Tag, error)
	DeleteImage(ctx context.Context, id int64) (objectKey string, err error)
}

type TagRepository interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	ListTagsWithCounts(ctx context.Context) ([]models.TagWithCount, error)
}

type BlogRepository interface {
	CreatePost(ctx context.Context, post models.BlogPost, tagNames []string) (*models.BlogPost, error)
	UpdatePostFields(ctx context.Context, postID int64, updates map[string]interface{}, tagNames []string) error
	GetPostByID(ctx context.Context, postID int64) (*models.BlogPost, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	ListPosts(ctx context.Context, page, pageSize int, tagFilter string) ([]models.BlogPost, int64, error)
	DeletePost(ctx context.Context, postID int64) error
}

type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, username, token string, exp time.Duration) error
	GetRefreshToken(ctx context.Context, username, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, username, token string) error
	DeleteAllUserTokens(ctx context.Context, username string) error
}
