package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"henna_gallery/internal/domain/models"
	"henna_gallery/internal/services/auth"
	imagesvc "henna_gallery/internal/services/image_service"
	"henna_gallery/internal/storage"
	"henna_gallery/internal/transport/http/dto"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockImageService struct {
	mock.Mock
}

func (m *MockImageService) UploadImage(ctx context.Context, input dto.ImageUploadInput) (*models.Image, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}

func (m *MockImageService) GetImage(ctx context.Context, imageID int64) (*models.Image, error) {
	args := m.Called(ctx, imageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}

func (m *MockImageService) ListImages(ctx context.Context, page, pageSize int, tagFilter string) (*dto.ImageListResponse, error) {
	args := m.Called(ctx, page, pageSize, tagFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ImageListResponse), args.Error(1)
}

func (m *MockImageService) ReplaceTags(ctx context.Context, imageID int64, tagIDs []int64) ([]models.Tag, error) {
	args := m.Called(ctx, imageID, tagIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockImageService) DeleteImage(ctx context.Context, imageID int64) error {
	args := m.Called(ctx, imageID)
	return args.Error(0)
}

type MockTagService struct {
	mock.Mock
}

func (m *MockTagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *MockTagService) ListTagsWithCounts(ctx context.Context) ([]models.TagWithCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TagWithCount), args.Error(1)
}

type MockBlogService struct {
	mock.Mock
}

func (m *MockBlogService) CreatePost(ctx context.Context, req dto.CreateBlogPostRequest) (*models.BlogPost, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogPost), args.Error(1)
}

func (m *MockBlogService) UpdatePost(ctx context.Context, postID int64, req dto.UpdateBlogPostRequest) (*models.BlogPost, error) {
	args := m.Called(ctx, postID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogPost), args.Error(1)
}

func (m *MockBlogService) GetPostByID(ctx context.Context, postID int64) (*models.BlogPost, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogPost), args.Error(1)
}

func (m *MockBlogService) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogPost), args.Error(1)
}

func (m *MockBlogService) ListPosts(ctx context.Context, page, pageSize int, tagFilter string) (*dto.BlogListResponse, error) {
	args := m.Called(ctx, page, pageSize, tagFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BlogListResponse), args.Error(1)
}

func (m *MockBlogService) DeletePost(ctx context.Context, postID int64) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenPair), args.Error(1)
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()

	e := echo.New()
	validate := validator.New()
	err := validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s != "" && !strings.ContainsAny(s, " _ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	})
	require.NoError(t, err)
	e.Validator = &testValidator{validator: validate}

	return e
}

type fixture struct {
	e       *echo.Echo
	routers *Routers
	images  *MockImageService
	tags    *MockTagService
	blog    *MockBlogService
	auth    *MockAuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		e:      newTestEcho(t),
		images: new(MockImageService),
		tags:   new(MockTagService),
		blog:   new(MockBlogService),
		auth:   new(MockAuthService),
	}
	f.routers = NewRouter(slog.Default(), f.images, f.tags, f.blog, f.auth)

	return f
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)

		f.auth.On("Login", mock.Anything, "admin", "secret").
			Return(&models.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login",
			strings.NewReader(`{"username":"admin","password":"secret"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)

		require.NoError(t, f.routers.Login(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"access_token":"a"`)
	})

	t.Run("bad credentials", func(t *testing.T) {
		f := newFixture(t)

		f.auth.On("Login", mock.Anything, "admin", "wrong").
			Return(nil, auth.ErrInvalidCredentials)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login",
			strings.NewReader(`{"username":"admin","password":"wrong"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)

		require.NoError(t, f.routers.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login",
			strings.NewReader(`{"username":"admin"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)

		require.NoError(t, f.routers.Login(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListImages(t *testing.T) {
	f := newFixture(t)

	f.images.On("ListImages", mock.Anything, 2, 20, "bridal").
		Return(&dto.ImageListResponse{
			Data:       []models.Image{{ID: 40}},
			Pagination: dto.NewPagination(2, 20, 41),
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/images?page=2&pageSize=20&tag=bridal", nil)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)

	require.NoError(t, f.routers.ListImages(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ImageListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(41), resp.Pagination.TotalItems)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}

func TestGetImage(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)
		c.SetPath("/api/v1/images/:id")
		c.SetParamNames("id")
		c.SetParamValues("abc")

		require.NoError(t, f.routers.GetImage(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)

		f.images.On("GetImage", mock.Anything, int64(99)).Return(nil, storage.ErrImageNotFound)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)
		c.SetPath("/api/v1/images/:id")
		c.SetParamNames("id")
		c.SetParamValues("99")

		require.NoError(t, f.routers.GetImage(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func multipartBody(t *testing.T, withFile bool, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if withFile {
		fw, err := w.CreateFormFile("file", "henna.jpg")
		require.NoError(t, err)
		_, err = fw.Write([]byte("image bytes"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)

		f.images.On("UploadImage", mock.Anything, mock.AnythingOfType("dto.ImageUploadInput")).
			Return(&models.Image{ID: 1, Name: "henna.jpg"}, nil)

		body, contentType := multipartBody(t, true, map[string]string{"tags": "bridal,arabic"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/images/upload", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)

		require.NoError(t, f.routers.UploadImage(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		f := newFixture(t)

		body, contentType := multipartBody(t, false, map[string]string{"description": "no file"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/images/upload", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)

		require.NoError(t, f.routers.UploadImage(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.images.AssertNotCalled(t, "UploadImage")
	})

	t.Run("upload failure", func(t *testing.T) {
		f := newFixture(t)

		f.images.On("UploadImage", mock.Anything, mock.AnythingOfType("dto.ImageUploadInput")).
			Return(nil, imagesvc.ErrUpload)

		body, contentType := multipartBody(t, true, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/images/upload", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)

		require.NoError(t, f.routers.UploadImage(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "upload_failed")
	})

	t.Run("persistence failure", func(t *testing.T) {
		f := newFixture(t)

		f.images.On("UploadImage", mock.Anything, mock.AnythingOfType("dto.ImageUploadInput")).
			Return(nil, imagesvc.ErrPersistence)

		body, contentType := multipartBody(t, true, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/images/upload", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)

		require.NoError(t, f.routers.UploadImage(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestReplaceImageTags(t *testing.T) {
	newReq := func(body string) (*httptest.ResponseRecorder, echo.Context, *fixture) {
		f := newFixture(t)
		req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)
		c.SetPath("/api/v1/images/:id/tags")
		c.SetParamNames("id")
		c.SetParamValues("1")
		return rec, c, f
	}

	t.Run("success", func(t *testing.T) {
		rec, c, f := newReq(`{"tagIds":[1,2]}`)
		f.images.On("ReplaceTags", mock.Anything, int64(1), []int64{1, 2}).
			Return([]models.Tag{{ID: 1}, {ID: 2}}, nil)

		require.NoError(t, f.routers.ReplaceImageTags(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("empty set clears tags", func(t *testing.T) {
		rec, c, f := newReq(`{"tagIds":[]}`)
		f.images.On("ReplaceTags", mock.Anything, int64(1), []int64{}).
			Return([]models.Tag{}, nil)

		require.NoError(t, f.routers.ReplaceImageTags(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing tagIds", func(t *testing.T) {
		rec, c, f := newReq(`{}`)

		require.NoError(t, f.routers.ReplaceImageTags(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.images.AssertNotCalled(t, "ReplaceTags")
	})

	t.Run("unknown tag id", func(t *testing.T) {
		rec, c, f := newReq(`{"tagIds":[1,999]}`)
		f.images.On("ReplaceTags", mock.Anything, int64(1), []int64{1, 999}).
			Return(nil, storage.ErrTagNotFound)

		require.NoError(t, f.routers.ReplaceImageTags(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown_tag_ids")
	})

	t.Run("image not found", func(t *testing.T) {
		rec, c, f := newReq(`{"tagIds":[1]}`)
		f.images.On("ReplaceTags", mock.Anything, int64(1), []int64{1}).
			Return(nil, storage.ErrImageNotFound)

		require.NoError(t, f.routers.ReplaceImageTags(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteImage(t *testing.T) {
	f := newFixture(t)

	f.images.On("DeleteImage", mock.Anything, int64(5)).Return(storage.ErrImageNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	c.SetPath("/api/v1/images/:id")
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, f.routers.DeleteImage(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTags(t *testing.T) {
	f := newFixture(t)

	f.tags.On("ListTags", mock.Anything).
		Return([]models.Tag{{ID: 1, Name: "Arabic", Slug: "arabic"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tags", nil)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)

	require.NoError(t, f.routers.ListTags(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"arabic"`)
}

func TestListTagCounts(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)

		f.tags.On("ListTagsWithCounts", mock.Anything).
			Return([]models.TagWithCount{
				{Tag: models.Tag{ID: 1, Name: "Arabic", Slug: "arabic"}, ImageCount: 4},
				{Tag: models.Tag{ID: 2, Name: "Bridal", Slug: "bridal"}, ImageCount: 0},
			}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/tags/counts", nil)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)

		require.NoError(t, f.routers.ListTagCounts(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"image_count":4`)
		assert.Contains(t, rec.Body.String(), `"image_count":0`)
	})

	t.Run("service error", func(t *testing.T) {
		f := newFixture(t)

		f.tags.On("ListTagsWithCounts", mock.Anything).
			Return(nil, errors.New("connection reset"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/tags/counts", nil)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)

		require.NoError(t, f.routers.ListTagCounts(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestCreatePost(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t)

		f.blog.On("CreatePost", mock.Anything, mock.AnythingOfType("dto.CreateBlogPostRequest")).
			Return(&models.BlogPost{ID: 1, Slug: "first-post"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/blog",
			strings.NewReader(`{"title":"First Post","slug":"first-post","content":"body"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)

		require.NoError(t, f.routers.CreatePost(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("invalid slug", func(t *testing.T) {
		f := newFixture(t)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/blog",
			strings.NewReader(`{"title":"First Post","slug":"First Post","content":"body"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)

		require.NoError(t, f.routers.CreatePost(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.blog.AssertNotCalled(t, "CreatePost")
	})

	t.Run("slug taken", func(t *testing.T) {
		f := newFixture(t)

		f.blog.On("CreatePost", mock.Anything, mock.AnythingOfType("dto.CreateBlogPostRequest")).
			Return(nil, storage.ErrSlugTaken)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/blog",
			strings.NewReader(`{"title":"Dup","slug":"dup","content":"body"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)

		require.NoError(t, f.routers.CreatePost(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "slug_taken")
	})
}

func TestGetPost(t *testing.T) {
	f := newFixture(t)

	f.blog.On("GetPostByID", mock.Anything, int64(42)).Return(nil, storage.ErrPostNotFound)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	c.SetPath("/api/v1/blog/:id")
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, f.routers.GetPost(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPostBySlug(t *testing.T) {
	f := newFixture(t)

	f.blog.On("GetPostBySlug", mock.Anything, "first-post").
		Return(&models.BlogPost{ID: 1, Slug: "first-post"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	c.SetPath("/api/v1/blog/slug/:slug")
	c.SetParamNames("slug")
	c.SetParamValues("first-post")

	require.NoError(t, f.routers.GetPostBySlug(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdatePost(t *testing.T) {
	t.Run("slug conflict maps to 409", func(t *testing.T) {
		f := newFixture(t)

		f.blog.On("UpdatePost", mock.Anything, int64(7), mock.AnythingOfType("dto.UpdateBlogPostRequest")).
			Return(nil, storage.ErrSlugTaken)

		req := httptest.NewRequest(http.MethodPut, "/",
			strings.NewReader(`{"slug":"taken"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)
		c.SetPath("/api/v1/blog/:id")
		c.SetParamNames("id")
		c.SetParamValues("7")

		require.NoError(t, f.routers.UpdatePost(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unexpected error maps to 500", func(t *testing.T) {
		f := newFixture(t)

		f.blog.On("UpdatePost", mock.Anything, int64(7), mock.AnythingOfType("dto.UpdateBlogPostRequest")).
			Return(nil, errors.New("connection reset"))

		req := httptest.NewRequest(http.MethodPut, "/",
			strings.NewReader(`{"title":"x"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := f.e.NewContext(req, rec)
		c.SetPath("/api/v1/blog/:id")
		c.SetParamNames("id")
		c.SetParamValues("7")

		require.NoError(t, f.routers.UpdatePost(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestListPosts(t *testing.T) {
	f := newFixture(t)

	f.blog.On("ListPosts", mock.Anything, 1, 10, "none").
		Return(&dto.BlogListResponse{
			Data:       []models.BlogPost{},
			Pagination: dto.NewPagination(1, 10, 0),
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/blog?tag=none", nil)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)

	require.NoError(t, f.routers.ListPosts(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.BlogListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
	assert.Equal(t, 0, resp.Pagination.TotalPages)
}
