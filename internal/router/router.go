package router

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"mediashare/internal/config"
	"mediashare/internal/handler"
	"mediashare/internal/middleware"
	"mediashare/internal/model"
)

// multipartOverhead is allowed on top of the image cap for form fields and boundaries.
const multipartOverhead = 1 << 20

// Register wires routes and middleware. Every API route is served both under
// /api and at the root.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	ac *middleware.AccessControl,
	authHandler *handler.AuthHandler,
	creatorHandler *handler.CreatorHandler,
	consumerHandler *handler.ConsumerHandler,
) {
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	if cfg.RateLimit > 0 {
		e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	}

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	uploadLimit := echomw.BodyLimit(fmt.Sprintf("%dK", (cfg.MaxUploadBytes+multipartOverhead)/1024))

	for _, base := range []*echo.Group{e.Group("/api"), e.Group("")} {
		// Public routes
		base.POST("/auth/register", authHandler.Register)
		base.POST("/auth/login", authHandler.Login)

		creator := base.Group("/creator", ac.Authenticate(), ac.Authorize(model.RoleCreator))
		creator.POST("/upload", creatorHandler.Upload, uploadLimit)
		creator.GET("/my-images", creatorHandler.MyImages)
		creator.DELETE("/images/:id", creatorHandler.DeleteImage)

		consumer := base.Group("/consumer", ac.Authenticate(), ac.Authorize(model.RoleConsumer))
		consumer.GET("/images", consumerHandler.ListImages)
		consumer.POST("/images/:id/like", consumerHandler.LikeImage)
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
