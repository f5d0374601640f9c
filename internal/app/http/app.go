package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	appmw "henna_gallery/internal/middleware"
	httprouters "henna_gallery/internal/transport/http"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	m       *http.ServeMux
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	host    string
	port    string
	token   string
}

func New(log *slog.Logger, jwtSecret, sessionSecret, host, port string, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true

	validate := validator.New()
	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	e.Validator = &CustomValidator{validator: validate}

	e.Use(session.Middleware(sessions.NewCookieStore([]byte(sessionSecret))))

	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(appmw.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
			)

			return nil
		},
	}))

	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		log.Info("statsviz start with error", slog.Any("error:", err.Error()))
	}

	return &Server{
		m:       mux,
		log:     log,
		e:       e,
		routers: routers,
		host:    host,
		port:    port,
		token:   jwtSecret,
	}
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(fmt.Sprintf(":%s", s.port)); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", op, "http server")

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

// hasAdminSession reports whether the cookie session already carries an
// authenticated admin. Requests with a live session skip the bearer token
// check; everything else must present a valid JWT.
func hasAdminSession(c echo.Context) bool {
	sess, err := session.Get("admin_session", c)
	if err != nil {
		return false
	}
	username, ok := sess.Values["username"].(string)
	return ok && username != ""
}

func (s *Server) BuildRouters() {
	api := s.e.Group("/api/v1")
	{
		admin := api.Group("/admin")
		{
			admin.POST("/login", s.routers.Login)
			admin.POST("/refresh", s.routers.Refresh)
		}

		s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

		debug := s.e.Group("/debug")
		{
			debug.GET("/statsviz/", echo.WrapHandler(s.m))
			debug.GET("/statsviz/*", echo.WrapHandler(s.m))
		}

		swagger := s.e.Group("/swag")
		{
			swagger.GET("/swagger/*", echoSwagger.WrapHandler)
		}

		api.GET("/images", s.routers.ListImages)
		api.GET("/images/:id", s.routers.GetImage)
		api.GET("/tags", s.routers.ListTags)
		api.GET("/tags/counts", s.routers.ListTagCounts)
		api.GET("/blog", s.routers.ListPosts)
		api.GET("/blog/:id", s.routers.GetPost)
		api.GET("/blog/slug/:slug", s.routers.GetPostBySlug)

		jwtGuard := echojwt.WithConfig(echojwt.Config{
			SigningKey: []byte(s.token),
			Skipper:    hasAdminSession,
		})

		admin.POST("/logout", s.routers.Logout, jwtGuard)

		imageAdmin := api.Group("/images", jwtGuard)
		{
			imageAdmin.POST("/upload", s.routers.UploadImage)
			imageAdmin.PUT("/:id/tags", s.routers.ReplaceImageTags)
			imageAdmin.DELETE("/:id", s.routers.DeleteImage)
		}

		blogAdmin := api.Group("/blog", jwtGuard)
		{
			blogAdmin.POST("", s.routers.CreatePost)
			blogAdmin.PUT("/:id", s.routers.UpdatePost)
			blogAdmin.DELETE("/:id", s.routers.DeletePost)
		}
	}
}
