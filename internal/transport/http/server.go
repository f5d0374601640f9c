package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"henna_gallery/internal/domain/models"
	"henna_gallery/internal/lib/logger/sl"
	"henna_gallery/internal/services/auth"
	imagesvc "henna_gallery/internal/services/image_service"
	"henna_gallery/internal/storage"
	"henna_gallery/internal/transport/http/dto"
	"henna_gallery/internal/transport/http/dto/request"
	"henna_gallery/internal/transport/http/dto/response"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	_ "henna_gallery/docs"
)

type ImageService interface {
	UploadImage(ctx context.Context, input dto.ImageUploadInput) (*models.Image, error)
	GetImage(ctx context.Context, imageID int64) (*models.Image, error)
	ListImages(ctx context.Context, page, pageSize int, tagFilter string) (*dto.ImageListResponse, error)
	ReplaceTags(ctx context.Context, imageID int64, tagIDs []int64) ([]models.Tag, error)
	DeleteImage(ctx context.Context, imageID int64) error
}

type TagService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	ListTagsWithCounts(ctx context.Context) ([]models.TagWithCount, error)
}

type BlogService interface {
	CreatePost(ctx context.Context, req dto.CreateBlogPostRequest) (*models.BlogPost, error)
	UpdatePost(ctx context.Context, postID int64, req dto.UpdateBlogPostRequest) (*models.BlogPost, error)
	GetPostByID(ctx context.Context, postID int64) (*models.BlogPost, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	ListPosts(ctx context.Context, page, pageSize int, tagFilter string) (*dto.BlogListResponse, error)
	DeletePost(ctx context.Context, postID int64) error
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (*models.TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, username string) error
}

type Routers struct {
	log          *slog.Logger
	ImageService ImageService
	TagService   TagService
	BlogService  BlogService
	AuthService  AuthService
}

func NewRouter(log *slog.Logger, imageService ImageService, tagService TagService, blogService BlogService, authService AuthService) *Routers {
	return &Routers{
		log:          log,
		ImageService: imageService,
		TagService:   tagService,
		BlogService:  blogService,
		AuthService:  authService,
	}
}

const adminSessionName = "admin_session"

// Login godoc
// @Summary Admin login
// @Description Authenticates the admin account and returns a JWT token pair.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Admin credentials"
// @Success 200 {object} response.Response{data=models.TokenPair}
// @Failure 400 {object} response.ErrorResponse "Invalid request format"
// @Failure 401 {object} response.ErrorResponse "Authentication failed"
// @Router /api/v1/admin/login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.LoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid login request", slog.String("username", req.Username))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	pair, err := r.AuthService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	sess, err := session.Get(adminSessionName, c)
	if err == nil {
		sess.Values["username"] = req.Username
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			log.Warn("failed to save session", sl.Err(err))
		}
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(pair))
}

// Refresh godoc
// @Summary Rotate refresh token
// @Description Exchanges a valid refresh token for a new token pair.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.RefreshRequest true "Refresh token"
// @Success 200 {object} response.Response{data=models.TokenPair}
// @Failure 400 {object} response.ErrorResponse "Invalid request format"
// @Failure 401 {object} response.ErrorResponse "Token rejected"
// @Router /api/v1/admin/refresh [post]
func (r *Routers) Refresh(c echo.Context) error {
	const op = "http.routers.Refresh"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.RefreshRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	pair, err := r.AuthService.RefreshTokens(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
		}
		log.Error("failed to refresh tokens", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(pair))
}

// Logout godoc
// @Summary Admin logout
// @Description Revokes all refresh tokens and clears the admin session.
// @Tags auth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/logout [post]
func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	log := r.log.With(
		slog.String("op", op),
	)

	username := adminUsername(c)
	if username != "" {
		if err := r.AuthService.Logout(c.Request().Context(), username); err != nil {
			log.Error("failed to revoke tokens", sl.Err(err))
			return c.JSON(http.StatusInternalServerError, response.ErrInternal)
		}
	}

	sess, err := session.Get(adminSessionName, c)
	if err == nil {
		sess.Options.MaxAge = -1
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			log.Warn("failed to clear session", sl.Err(err))
		}
	}

	return c.JSON(http.StatusOK, response.Response{Status: "success", Message: "logged out"})
}

// adminUsername resolves the acting admin from the session. Session presence
// is guaranteed by the admin middleware, so an empty result means the request
// authenticated by bearer token only.
func adminUsername(c echo.Context) string {
	sess, err := session.Get(adminSessionName, c)
	if err != nil {
		return ""
	}
	username, _ := sess.Values["username"].(string)
	return username
}

// UploadImage godoc
// @Summary Upload a gallery image
// @Description Stores the file in object storage and creates the image record with its tags.
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Param description formData string false "Image description"
// @Param tags formData string false "Comma-separated tag names"
// @Success 201 {object} response.Response{data=models.Image}
// @Failure 400 {object} response.ErrorResponse "File missing or too large"
// @Failure 500 {object} response.ErrorResponse "Upload or persistence failure"
// @Security ApiKeyAuth
// @Router /api/v1/images/upload [post]
func (r *Routers) UploadImage(c echo.Context) error {
	const op = "http.routers.UploadImage"

	log := r.log.With(
		slog.String("op", op),
	)

	var input dto.ImageUploadInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	file, err := c.FormFile("file")
	if err != nil {
		log.Warn("empty file in request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrFileMissing)
	}
	input.File = file

	log.Debug("got file for upload",
		slog.String("filename", file.Filename),
		slog.Int64("size", file.Size),
	)

	img, err := r.ImageService.UploadImage(c.Request().Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileMissing):
			return c.JSON(http.StatusBadRequest, response.ErrFileMissing)
		case errors.Is(err, storage.ErrFileTooLarge):
			return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("file_too_large", "Uploaded file exceeds the size limit"))
		case errors.Is(err, imagesvc.ErrUpload):
			return c.JSON(http.StatusInternalServerError, response.ErrUploadFailed)
		default:
			log.Error("upload failed", sl.Err(err), slog.String("filename", file.Filename))
			return c.JSON(http.StatusInternalServerError, response.ErrInternal)
		}
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(img))
}

// ListImages godoc
// @Summary List gallery images
// @Description Returns one page of images, newest first, optionally filtered by tag slug. Use tag=none for untagged images.
// @Tags images
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Param tag query string false "Tag slug, 'all' or 'none'"
// @Success 200 {object} dto.ImageListResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/images [get]
func (r *Routers) ListImages(c echo.Context) error {
	const op = "http.routers.ListImages"

	log := r.log.With(
		slog.String("op", op),
	)

	page, pageSize := paginationParams(c, 20)
	tag := c.QueryParam("tag")

	list, err := r.ImageService.ListImages(c.Request().Context(), page, pageSize, tag)
	if err != nil {
		log.Error("failed to list images", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, list)
}

// GetImage godoc
// @Summary Get one image
// @Tags images
// @Produce json
// @Param id path int true "Image ID"
// @Success 200 {object} response.Response{data=models.Image}
// @Failure 400 {object} response.ErrorResponse "Invalid ID"
// @Failure 404 {object} response.ErrorResponse "Image not found"
// @Router /api/v1/images/{id} [get]
func (r *Routers) GetImage(c echo.Context) error {
	const op = "http.routers.GetImage"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	img, err := r.ImageService.GetImage(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrImageNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrImageNotFound)
		}
		log.Error("failed to get image", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(img))
}

// ReplaceImageTags godoc
// @Summary Replace the tag set of an image
// @Description Atomically replaces all tag associations with the given tag ids.
// @Tags images
// @Accept json
// @Produce json
// @Param id path int true "Image ID"
// @Param request body dto.ReplaceTagsRequest true "New tag ids"
// @Success 200 {object} response.Response{data=[]models.Tag}
// @Failure 400 {object} response.ErrorResponse "Invalid ID or unknown tag ids"
// @Failure 404 {object} response.ErrorResponse "Image not found"
// @Failure 500 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/images/{id}/tags [put]
func (r *Routers) ReplaceImageTags(c echo.Context) error {
	const op = "http.routers.ReplaceImageTags"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	var req dto.ReplaceTagsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if req.TagIDs == nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	tags, err := r.ImageService.ReplaceTags(c.Request().Context(), id, req.TagIDs)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrImageNotFound):
			return c.JSON(http.StatusNotFound, response.ErrImageNotFound)
		case errors.Is(err, storage.ErrTagNotFound):
			return c.JSON(http.StatusBadRequest, response.ErrUnknownTagIDs)
		default:
			log.Error("failed to replace tags", sl.Err(err))
			return c.JSON(http.StatusInternalServerError, response.ErrInternal)
		}
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(tags))
}

// DeleteImage godoc
// @Summary Delete an image
// @Description Removes the image record, its tag associations and, best effort, the stored object.
// @Tags images
// @Produce json
// @Param id path int true "Image ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Invalid ID"
// @Failure 404 {object} response.ErrorResponse "Image not found"
// @Failure 500 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/images/{id} [delete]
func (r *Routers) DeleteImage(c echo.Context) error {
	const op = "http.routers.DeleteImage"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	if err := r.ImageService.DeleteImage(c.Request().Context(), id); err != nil {
		if errors.Is(err, storage.ErrImageNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrImageNotFound)
		}
		log.Error("failed to delete image", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.Response{Status: "success", Message: "image deleted"})
}

// ListTags godoc
// @Summary List all tags
// @Description Returns every tag ordered by name.
// @Tags tags
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Tag}
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/tags [get]
func (r *Routers) ListTags(c echo.Context) error {
	const op = "http.routers.ListTags"

	tags, err := r.TagService.ListTags(c.Request().Context())
	if err != nil {
		r.log.Error("failed to list tags", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(tags))
}

// ListTagCounts godoc
// @Summary List tags with image counts
// @Description Returns every tag with the number of distinct images carrying it, ordered by name.
// @Tags tags
// @Produce json
// @Success 200 {object} response.Response{data=[]models.TagWithCount}
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/tags/counts [get]
func (r *Routers) ListTagCounts(c echo.Context) error {
	const op = "http.routers.ListTagCounts"

	tags, err := r.TagService.ListTagsWithCounts(c.Request().Context())
	if err != nil {
		r.log.Error("failed to list tag counts", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(tags))
}

// CreatePost godoc
// @Summary Create a blog post
// @Tags blog
// @Accept json
// @Produce json
// @Param request body dto.CreateBlogPostRequest true "Post data"
// @Success 201 {object} response.Response{data=models.BlogPost}
// @Failure 400 {object} response.ErrorResponse "Invalid request format"
// @Failure 409 {object} response.ErrorResponse "Slug already taken"
// @Failure 500 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/blog [post]
func (r *Routers) CreatePost(c echo.Context) error {
	const op = "http.routers.CreatePost"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.CreateBlogPostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid post payload", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	post, err := r.BlogService.CreatePost(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, storage.ErrSlugTaken) {
			return c.JSON(http.StatusConflict, response.ErrSlugTaken)
		}
		log.Error("failed to create post", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(post))
}

// GetPost godoc
// @Summary Get a blog post by ID
// @Tags blog
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} response.Response{data=models.BlogPost}
// @Failure 400 {object} response.ErrorResponse "Invalid ID"
// @Failure 404 {object} response.ErrorResponse "Post not found"
// @Router /api/v1/blog/{id} [get]
func (r *Routers) GetPost(c echo.Context) error {
	const op = "http.routers.GetPost"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	post, err := r.BlogService.GetPostByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrPostNotFound)
		}
		log.Error("failed to get post", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(post))
}

// GetPostBySlug godoc
// @Summary Get a blog post by slug
// @Tags blog
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} response.Response{data=models.BlogPost}
// @Failure 404 {object} response.ErrorResponse "Post not found"
// @Router /api/v1/blog/slug/{slug} [get]
func (r *Routers) GetPostBySlug(c echo.Context) error {
	const op = "http.routers.GetPostBySlug"

	log := r.log.With(
		slog.String("op", op),
	)

	slug := c.Param("slug")

	post, err := r.BlogService.GetPostBySlug(c.Request().Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrPostNotFound)
		}
		log.Error("failed to get post", sl.Err(err), slog.String("slug", slug))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(post))
}

// UpdatePost godoc
// @Summary Update a blog post
// @Description Applies only the fields present in the payload. Sending tags replaces the whole tag set.
// @Tags blog
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body dto.UpdateBlogPostRequest true "Fields to update"
// @Success 200 {object} response.Response{data=models.BlogPost}
// @Failure 400 {object} response.ErrorResponse "Invalid request format"
// @Failure 404 {object} response.ErrorResponse "Post not found"
// @Failure 409 {object} response.ErrorResponse "Slug already taken"
// @Failure 500 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/blog/{id} [put]
func (r *Routers) UpdatePost(c echo.Context) error {
	const op = "http.routers.UpdatePost"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	var req dto.UpdateBlogPostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid post payload", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	post, err := r.BlogService.UpdatePost(c.Request().Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPostNotFound):
			return c.JSON(http.StatusNotFound, response.ErrPostNotFound)
		case errors.Is(err, storage.ErrSlugTaken):
			return c.JSON(http.StatusConflict, response.ErrSlugTaken)
		default:
			log.Error("failed to update post", sl.Err(err))
			return c.JSON(http.StatusInternalServerError, response.ErrInternal)
		}
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(post))
}

// DeletePost godoc
// @Summary Delete a blog post
// @Tags blog
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Invalid ID"
// @Failure 404 {object} response.ErrorResponse "Post not found"
// @Failure 500 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/blog/{id} [delete]
func (r *Routers) DeletePost(c echo.Context) error {
	const op = "http.routers.DeletePost"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidID)
	}

	if err := r.BlogService.DeletePost(c.Request().Context(), id); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrPostNotFound)
		}
		log.Error("failed to delete post", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, response.Response{Status: "success", Message: "post deleted"})
}

// ListPosts godoc
// @Summary List blog posts
// @Description Returns one page of posts, newest first, optionally filtered by tag name. Use tag=none for untagged posts.
// @Tags blog
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(10)
// @Param tag query string false "Tag name, 'all' or 'none'"
// @Success 200 {object} dto.BlogListResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/blog [get]
func (r *Routers) ListPosts(c echo.Context) error {
	const op = "http.routers.ListPosts"

	log := r.log.With(
		slog.String("op", op),
	)

	page, pageSize := paginationParams(c, 10)
	tag := c.QueryParam("tag")

	list, err := r.BlogService.ListPosts(c.Request().Context(), page, pageSize, tag)
	if err != nil {
		log.Error("failed to list posts", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.JSON(http.StatusOK, list)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

func paginationParams(c echo.Context, defaultSize int) (page, pageSize int) {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err = strconv.Atoi(c.QueryParam("pageSize"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = defaultSize
	}

	return page, pageSize
}
