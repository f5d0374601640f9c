package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"henna_gallery/internal/domain/models"
	"henna_gallery/internal/lib/logger/sl"
	"henna_gallery/internal/repository"
	"henna_gallery/internal/storage"
	"henna_gallery/internal/transport/http/dto"
)

const (
	defaultCoverImage = "/images/blog/default.jpg"
	defaultAuthorName = "Admin"
	excerptLength     = 150
)

type BlogService struct {
	log  *slog.Logger
	repo repository.BlogRepository
}

func NewBlogService(log *slog.Logger, repo repository.BlogRepository) *BlogService {
	return &BlogService{log: log, repo: repo}
}

// CreatePost fills in the optional fields the client omitted and inserts the
// post with its tag set. A slug collision surfaces as storage.ErrSlugTaken.
func (s *BlogService) CreatePost(ctx context.Context, req dto.CreateBlogPostRequest) (*models.BlogPost, error) {
	const op = "blog_service.CreatePost"

	log := s.log.With(
		slog.String("op", op),
		slog.String("slug", req.Slug),
	)

	log.Info("creating blog post", slog.String("title", req.Title))

	post := models.BlogPost{
		Title:      req.Title,
		Slug:       req.Slug,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CoverImage: req.CoverImage,
		AuthorName: defaultAuthorName,
	}

	if post.Excerpt == "" {
		post.Excerpt = makeExcerpt(req.Content)
	}
	if post.CoverImage == "" {
		post.CoverImage = defaultCoverImage
	}
	if req.PublishedAt != nil {
		post.PublishedAt = *req.PublishedAt
	} else {
		post.PublishedAt = time.Now().UTC()
	}
	if req.Author != nil {
		if req.Author.Name != "" {
			post.AuthorName = req.Author.Name
		}
		post.AuthorAvatar = req.Author.Avatar
	}

	created, err := s.repo.CreatePost(ctx, post, req.Tags)
	if err != nil {
		if errors.Is(err, storage.ErrSlugTaken) {
			log.Warn("slug already taken")
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Error("failed to create post", sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("blog post created", slog.Int64("post_id", created.ID))

	return created, nil
}

// UpdatePost applies only the fields the client sent. A nil Tags slice keeps
// the existing tag set, an empty one clears it.
func (s *BlogService) UpdatePost(ctx context.Context, postID int64, req dto.UpdateBlogPostRequest) (*models.BlogPost, error) {
	const op = "blog_service.UpdatePost"

	log := s.log.With(slog.String("op", op), slog.Int64("post_id", postID))

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Slug != nil {
		updates["slug"] = *req.Slug
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Excerpt != nil {
		updates["excerpt"] = *req.Excerpt
	}
	if req.CoverImage != nil {
		updates["cover_image"] = *req.CoverImage
	}
	if req.PublishedAt != nil {
		updates["published_at"] = *req.PublishedAt
	}
	if req.Author != nil {
		if req.Author.Name != "" {
			updates["author_name"] = req.Author.Name
		}
		updates["author_avatar"] = req.Author.Avatar
	}

	if err := s.repo.UpdatePostFields(ctx, postID, updates, req.Tags); err != nil {
		switch {
		case errors.Is(err, storage.ErrPostNotFound):
			log.Warn("post not found")
		case errors.Is(err, storage.ErrSlugTaken):
			log.Warn("slug already taken")
		default:
			log.Error("failed to update post", sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.repo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("blog post updated")

	return updated, nil
}

func (s *BlogService) GetPostByID(ctx context.Context, postID int64) (*models.BlogPost, error) {
	const op = "blog_service.GetPostByID"

	post, err := s.repo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return post, nil
}

func (s *BlogService) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	const op = "blog_service.GetPostBySlug"

	post, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return post, nil
}

func (s *BlogService) ListPosts(ctx context.Context, page, pageSize int, tagFilter string) (*dto.BlogListResponse, error) {
	const op = "blog_service.ListPosts"

	posts, total, err := s.repo.ListPosts(ctx, page, pageSize, tagFilter)
	if err != nil {
		s.log.Error("failed to list posts", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = repository.DefaultPostPageSize
	}

	return &dto.BlogListResponse{
		Data:       posts,
		Pagination: dto.NewPagination(page, pageSize, total),
	}, nil
}

func (s *BlogService) DeletePost(ctx context.Context, postID int64) error {
	const op = "blog_service.DeletePost"

	log := s.log.With(slog.String("op", op), slog.Int64("post_id", postID))

	if err := s.repo.DeletePost(ctx, postID); err != nil {
		if !errors.Is(err, storage.ErrPostNotFound) {
			log.Error("failed to delete post", sl.Err(err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("blog post deleted")

	return nil
}

// makeExcerpt takes the first excerptLength runes of the content, so a
// multi-byte character is never split.
func makeExcerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptLength {
		return content
	}
	return string(runes[:excerptLength]) + "..."
}
