package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"testing"

	"henna_gallery/internal/domain/models"
	"henna_gallery/internal/repository"
	"henna_gallery/internal/storage"
	"henna_gallery/internal/transport/http/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockImageRepository struct {
	mock.Mock
}

func (m *MockImageRepository) CreateImageWithTags(ctx context.Context, image models.Image, tagNames []string) (*models.Image, error) {
	args := m.Called(ctx, image, tagNames)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}

func (m *MockImageRepository) GetImageByID(ctx context.Context, id int64) (*models.Image, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}

func (m *MockImageRepository) ListImages(ctx context.Context, page, pageSize int, tagFilter string) ([]models.Image, int64, error) {
	args := m.Called(ctx, page, pageSize, tagFilter)
	return args.Get(0).([]models.Image), args.Get(1).(int64), args.Error(2)
}

func (m *MockImageRepository) ReplaceImageTags(ctx context.Context, imageID int64, tagIDs []int64) ([]models.Tag, error) {
	args := m.Called(ctx, imageID, tagIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockImageRepository) DeleteImage(ctx context.Context, id int64) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, body, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type noopInvalidator struct{ calls int }

func (n *noopInvalidator) InvalidateTags() { n.calls++ }

func makeFileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	return form.File["file"][0]
}

func TestImageService_UploadImage_MissingFile(t *testing.T) {
	service := NewImageService(slog.Default(), new(MockImageRepository), new(MockObjectStorage), &noopInvalidator{}, 0)

	_, err := service.UploadImage(context.Background(), dto.ImageUploadInput{})
	assert.ErrorIs(t, err, storage.ErrFileMissing)
}

func TestImageService_UploadImage_FileTooLarge(t *testing.T) {
	service := NewImageService(slog.Default(), new(MockImageRepository), new(MockObjectStorage), &noopInvalidator{}, 4)

	fh := makeFileHeader(t, "big.jpg", "more than four bytes")

	_, err := service.UploadImage(context.Background(), dto.ImageUploadInput{File: fh})
	assert.ErrorIs(t, err, storage.ErrFileTooLarge)
}

func TestImageService_UploadImage_StorageFailure(t *testing.T) {
	mockRepo := new(MockImageRepository)
	mockStore := new(MockObjectStorage)
	service := NewImageService(slog.Default(), mockRepo, mockStore, &noopInvalidator{}, 0)

	mockStore.On("Put", mock.Anything, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64"), mock.AnythingOfType("string")).
		Return("", errors.New("bucket unavailable"))

	fh := makeFileHeader(t, "henna.jpg", "image bytes")

	_, err := service.UploadImage(context.Background(), dto.ImageUploadInput{File: fh})
	assert.ErrorIs(t, err, ErrUpload)
	mockRepo.AssertNotCalled(t, "CreateImageWithTags")
}

func TestImageService_UploadImage_PersistFailureLeavesOrphan(t *testing.T) {
	mockRepo := new(MockImageRepository)
	mockStore := new(MockObjectStorage)
	service := NewImageService(slog.Default(), mockRepo, mockStore, &noopInvalidator{}, 0)

	mockStore.On("Put", mock.Anything, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64"), mock.AnythingOfType("string")).
		Return("https://img.example.com/images/abc", nil)
	mockRepo.On("CreateImageWithTags", mock.Anything, mock.AnythingOfType("models.Image"), mock.Anything).
		Return(nil, errors.New("connection reset"))

	fh := makeFileHeader(t, "henna.jpg", "image bytes")

	_, err := service.UploadImage(context.Background(), dto.ImageUploadInput{File: fh})
	assert.ErrorIs(t, err, ErrPersistence)
	// the stored object is not cleaned up
	mockStore.AssertNotCalled(t, "Delete")
}

func TestImageService_UploadImage_Success(t *testing.T) {
	mockRepo := new(MockImageRepository)
	mockStore := new(MockObjectStorage)
	inv := &noopInvalidator{}
	service := NewImageService(slog.Default(), mockRepo, mockStore, inv, 0)

	var uploadedKey string
	mockStore.On("Put", mock.Anything, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64"), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			uploadedKey = args.String(1)
		}).
		Return("https://img.example.com/images/abc", nil)

	var persisted models.Image
	mockRepo.On("CreateImageWithTags", mock.Anything, mock.AnythingOfType("models.Image"), []string{"bridal", "arabic"}).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(models.Image)
		}).
		Return(&models.Image{ID: 1, Name: "henna.jpg"}, nil)

	fh := makeFileHeader(t, "henna.jpg", "image bytes")

	img, err := service.UploadImage(context.Background(), dto.ImageUploadInput{
		File: fh,
		Tags: "bridal, arabic",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), img.ID)
	assert.True(t, strings.HasPrefix(uploadedKey, "images/"))
	assert.Equal(t, uploadedKey, persisted.ObjectKey)
	assert.Equal(t, "https://img.example.com/images/abc", persisted.ObjectURL)
	assert.Equal(t, "henna.jpg", persisted.Name)
	assert.Equal(t, 1, inv.calls)
}

func TestImageService_ReplaceTags(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		mockSetup func(m *MockImageRepository)
		wantErr   error
	}{
		{
			name: "success",
			mockSetup: func(m *MockImageRepository) {
				m.On("ReplaceImageTags", ctx, int64(1), []int64{1, 2}).
					Return([]models.Tag{{ID: 1, Name: "Bridal", Slug: "bridal"}, {ID: 2, Name: "Arabic", Slug: "arabic"}}, nil)
			},
		},
		{
			name: "image not found",
			mockSetup: func(m *MockImageRepository) {
				m.On("ReplaceImageTags", ctx, int64(1), []int64{1, 2}).
					Return(nil, storage.ErrImageNotFound)
			},
			wantErr: storage.ErrImageNotFound,
		},
		{
			name: "unknown tag id",
			mockSetup: func(m *MockImageRepository) {
				m.On("ReplaceImageTags", ctx, int64(1), []int64{1, 2}).
					Return(nil, storage.ErrTagNotFound)
			},
			wantErr: storage.ErrTagNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockImageRepository)
			tt.mockSetup(mockRepo)
			service := NewImageService(slog.Default(), mockRepo, new(MockObjectStorage), &noopInvalidator{}, 0)

			tags, err := service.ReplaceTags(ctx, 1, []int64{1, 2})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Len(t, tags, 2)
			}
		})
	}
}

func TestImageService_DeleteImage(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes row and object", func(t *testing.T) {
		mockRepo := new(MockImageRepository)
		mockStore := new(MockObjectStorage)
		service := NewImageService(slog.Default(), mockRepo, mockStore, &noopInvalidator{}, 0)

		mockRepo.On("DeleteImage", ctx, int64(5)).Return("images/abc", nil)
		mockStore.On("Delete", ctx, "images/abc").Return(nil)

		require.NoError(t, service.DeleteImage(ctx, 5))
		mockStore.AssertExpectations(t)
	})

	t.Run("object delete failure is swallowed", func(t *testing.T) {
		mockRepo := new(MockImageRepository)
		mockStore := new(MockObjectStorage)
		service := NewImageService(slog.Default(), mockRepo, mockStore, &noopInvalidator{}, 0)

		mockRepo.On("DeleteImage", ctx, int64(5)).Return("images/abc", nil)
		mockStore.On("Delete", ctx, "images/abc").Return(errors.New("bucket unavailable"))

		assert.NoError(t, service.DeleteImage(ctx, 5))
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockImageRepository)
		service := NewImageService(slog.Default(), mockRepo, new(MockObjectStorage), &noopInvalidator{}, 0)

		mockRepo.On("DeleteImage", ctx, int64(5)).Return("", storage.ErrImageNotFound)

		assert.ErrorIs(t, service.DeleteImage(ctx, 5), storage.ErrImageNotFound)
	})
}

func TestImageService_ListImages(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockImageRepository)
	service := NewImageService(slog.Default(), mockRepo, new(MockObjectStorage), &noopInvalidator{}, 0)

	mockRepo.On("ListImages", ctx, 2, 20, "bridal").
		Return([]models.Image{{ID: 40}, {ID: 39}}, int64(41), nil)

	resp, err := service.ListImages(ctx, 2, 20, "bridal")
	require.NoError(t, err)

	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, int64(41), resp.Pagination.TotalItems)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}

func TestImageService_ListImages_OversizedPage(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockImageRepository)
	service := NewImageService(slog.Default(), mockRepo, new(MockObjectStorage), &noopInvalidator{}, 0)

	mockRepo.On("ListImages", ctx, 1, 150, "all").
		Return([]models.Image{{ID: 1}}, int64(41), nil)

	// an out-of-range page size falls back to the default in the envelope,
	// matching what the repository actually served
	resp, err := service.ListImages(ctx, 1, 150, "all")
	require.NoError(t, err)

	assert.Equal(t, repository.DefaultImagePageSize, resp.Pagination.PageSize)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}
