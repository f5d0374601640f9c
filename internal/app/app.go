package app

import (
	"context"
	"log/slog"

	httpapp "henna_gallery/internal/app/http"
	"henna_gallery/internal/config"
	"henna_gallery/internal/repository"
	"henna_gallery/internal/services/auth"
	blogsvc "henna_gallery/internal/services/blog_service"
	imagesvc "henna_gallery/internal/services/image_service"
	tagsvc "henna_gallery/internal/services/tag_service"
	"henna_gallery/internal/storage/postgresql"
	redisapp "henna_gallery/internal/storage/redis"
	"henna_gallery/internal/storage/s3"
	httprouters "henna_gallery/internal/transport/http"
)

type App struct {
	HTTPServer *httpapp.Server
	Storage    *postgresql.Storage
	Redis      *redisapp.Client
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) *App {
	storage, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		panic(err)
	}

	if err := storage.Bootstrap(ctx); err != nil {
		panic(err)
	}

	redisClient := redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
	if err := redisClient.HealthCheck(ctx); err != nil {
		panic(err)
	}

	objStorage, err := s3.New(ctx, cfg.S3)
	if err != nil {
		panic(err)
	}

	imageRepo := repository.NewImageRepository(storage.Pool())
	tagRepo := repository.NewTagRepository(storage.Pool())
	blogRepo := repository.NewBlogRepository(storage.Pool())
	tokenRepo := repository.NewRedisTokenRepo(redisClient)

	tagService := tagsvc.NewTagService(log, tagRepo)
	imageService := imagesvc.NewImageService(log, imageRepo, objStorage, tagService, cfg.Upload.MaxSize)
	blogService := blogsvc.NewBlogService(log, blogRepo)
	authService := auth.New(log, tokenRepo, cfg.Admin.Username, cfg.Admin.PasswordHash, cfg.Admin.JWTSecret, cfg.TokenTTL)

	routers := httprouters.NewRouter(log, imageService, tagService, blogService, authService)

	server := httpapp.New(log, cfg.Admin.JWTSecret, cfg.Admin.SessionSecret, cfg.HTTP.Host, cfg.HTTP.Port, routers)
	server.BuildRouters()

	return &App{
		HTTPServer: server,
		Storage:    storage,
		Redis:      redisClient,
	}
}

// Stop releases the storage connections after the HTTP server is down.
func (a *App) Stop() {
	a.Storage.Stop()
	a.Redis.Stop()
}
