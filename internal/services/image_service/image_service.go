package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"

	"henna_gallery/internal/domain/models"
	"henna_gallery/internal/lib/logger/sl"
	"henna_gallery/internal/metrics"
	"henna_gallery/internal/repository"
	"henna_gallery/internal/storage"
	"henna_gallery/internal/storage/s3"
	"henna_gallery/internal/transport/http/dto"

	"github.com/google/uuid"
)

var (
	ErrUpload      = errors.New("failed to upload file to object storage")
	ErrPersistence = errors.New("failed to persist image metadata")
)

// TagInvalidator is notified whenever the set of tags may have changed.
type TagInvalidator interface {
	InvalidateTags()
}

type ImageService struct {
	log         *slog.Logger
	repo        repository.ImageRepository
	objStorage  s3.ObjectStorage
	invalidator TagInvalidator
	maxFileSize int64
}

func NewImageService(log *slog.Logger, repo repository.ImageRepository, objStorage s3.ObjectStorage, invalidator TagInvalidator, maxFileSize int64) *ImageService {
	return &ImageService{
		log:         log,
		repo:        repo,
		objStorage:  objStorage,
		invalidator: invalidator,
		maxFileSize: maxFileSize,
	}
}

// UploadImage stores the file in object storage first, then persists the
// metadata row together with its tag associations. If the database write
// fails after a successful upload, the stored object is left orphaned:
// we only log it and bump a counter, a sweeper can reclaim it later.
func (s *ImageService) UploadImage(ctx context.Context, input dto.ImageUploadInput) (*models.Image, error) {
	const op = "image_service.UploadImage"

	log := s.log.With(slog.String("op", op))

	if input.File == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrFileMissing)
	}
	if s.maxFileSize > 0 && input.File.Size > s.maxFileSize {
		log.Warn("file too large",
			slog.String("filename", input.File.Filename),
			slog.Int64("size", input.File.Size),
		)
		return nil, fmt.Errorf("%s: %w", op, storage.ErrFileTooLarge)
	}

	src, err := input.File.Open()
	if err != nil {
		log.Error("failed to open uploaded file", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer src.Close()

	key := "images/" + uuid.New().String()

	url, err := s.objStorage.Put(ctx, key, src, input.File.Size, contentType(input.File))
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("upload_failed").Inc()
		log.Error("object storage upload failed", sl.Err(err), slog.String("key", key))

		return nil, fmt.Errorf("%s: %w", op, ErrUpload)
	}

	img := models.Image{
		Name:        input.File.Filename,
		ObjectKey:   key,
		ObjectURL:   url,
		Description: input.Description,
	}

	created, err := s.repo.CreateImageWithTags(ctx, img, input.TagNames())
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("persist_failed").Inc()
		metrics.OrphanedObjects.Inc()
		log.Error("failed to persist image, object orphaned",
			sl.Err(err),
			slog.String("key", key),
		)

		return nil, fmt.Errorf("%s: %w", op, ErrPersistence)
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	s.invalidator.InvalidateTags()

	log.Info("image uploaded",
		slog.Int64("image_id", created.ID),
		slog.String("key", key),
	)

	return created, nil
}

func (s *ImageService) GetImage(ctx context.Context, imageID int64) (*models.Image, error) {
	const op = "image_service.GetImage"

	img, err := s.repo.GetImageByID(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return img, nil
}

func (s *ImageService) ListImages(ctx context.Context, page, pageSize int, tagFilter string) (*dto.ImageListResponse, error) {
	const op = "image_service.ListImages"

	images, total, err := s.repo.ListImages(ctx, page, pageSize, tagFilter)
	if err != nil {
		s.log.Error("failed to list images", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = repository.DefaultImagePageSize
	}

	return &dto.ImageListResponse{
		Data:       images,
		Pagination: dto.NewPagination(page, pageSize, total),
	}, nil
}

// ReplaceTags atomically swaps the full tag set of an image.
func (s *ImageService) ReplaceTags(ctx context.Context, imageID int64, tagIDs []int64) ([]models.Tag, error) {
	const op = "image_service.ReplaceTags"

	log := s.log.With(slog.String("op", op), slog.Int64("image_id", imageID))

	tags, err := s.repo.ReplaceImageTags(ctx, imageID, tagIDs)
	if err != nil {
		if errors.Is(err, storage.ErrImageNotFound) || errors.Is(err, storage.ErrTagNotFound) {
			log.Warn("replace tags rejected", sl.Err(err))
		} else {
			log.Error("failed to replace tags", sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidator.InvalidateTags()

	log.Info("image tags replaced", slog.Int("tag_count", len(tags)))

	return tags, nil
}

// DeleteImage removes the metadata row and, best effort, the stored object.
func (s *ImageService) DeleteImage(ctx context.Context, imageID int64) error {
	const op = "image_service.DeleteImage"

	log := s.log.With(slog.String("op", op), slog.Int64("image_id", imageID))

	objectKey, err := s.repo.DeleteImage(ctx, imageID)
	if err != nil {
		if errors.Is(err, storage.ErrImageNotFound) {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Error("failed to delete image", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if objectKey != "" {
		if err := s.objStorage.Delete(ctx, objectKey); err != nil {
			metrics.OrphanedObjects.Inc()
			log.Warn("failed to delete object, orphaned",
				sl.Err(err),
				slog.String("key", objectKey),
			)
		}
	}

	s.invalidator.InvalidateTags()

	log.Info("image deleted")

	return nil
}

func contentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
