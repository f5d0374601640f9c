package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"henna_gallery/internal/domain/models"
	"henna_gallery/internal/lib/logger/sl"
	"henna_gallery/internal/repository"

	"github.com/patrickmn/go-cache"
)

const (
	tagCacheKey      = "tags:all"
	tagCountCacheKey = "tags:counts"
	tagCacheTTL      = time.Minute
)

// TagService serves the public tag listing. The list is read on every
// gallery page render, so it sits behind a short in-process cache that
// image mutations invalidate.
type TagService struct {
	log   *slog.Logger
	repo  repository.TagRepository
	cache *cache.Cache
}

func NewTagService(log *slog.Logger, repo repository.TagRepository) *TagService {
	return &TagService{
		log:   log,
		repo:  repo,
		cache: cache.New(tagCacheTTL, 5*time.Minute),
	}
}

func (s *TagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	const op = "tag_service.ListTags"

	if cached, ok := s.cache.Get(tagCacheKey); ok {
		if tags, ok := cached.([]models.Tag); ok {
			return tags, nil
		}
	}

	tags, err := s.repo.ListTags(ctx)
	if err != nil {
		s.log.Error("failed to list tags", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Set(tagCacheKey, tags, cache.DefaultExpiration)

	return tags, nil
}

// ListTagsWithCounts returns every tag with its distinct image count,
// cached alongside the plain listing.
func (s *TagService) ListTagsWithCounts(ctx context.Context) ([]models.TagWithCount, error) {
	const op = "tag_service.ListTagsWithCounts"

	if cached, ok := s.cache.Get(tagCountCacheKey); ok {
		if tags, ok := cached.([]models.TagWithCount); ok {
			return tags, nil
		}
	}

	tags, err := s.repo.ListTagsWithCounts(ctx)
	if err != nil {
		s.log.Error("failed to list tag counts", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Set(tagCountCacheKey, tags, cache.DefaultExpiration)

	return tags, nil
}

// InvalidateTags drops the cached listings so the next read hits the database.
func (s *TagService) InvalidateTags() {
	s.cache.Delete(tagCacheKey)
	s.cache.Delete(tagCountCacheKey)
}
