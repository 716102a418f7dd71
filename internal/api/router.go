package api

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dtapi/user-service/internal/api/handler"
	"github.com/dtapi/user-service/internal/api/middleware"
	"github.com/dtapi/user-service/internal/core/ports"
)

// Deps carries what the user routes need.
type Deps struct {
	Service   ports.UserService
	Batch     handler.BatchEnqueuer
	JWTSecret string
	Log       zerolog.Logger
}

// RegisterRoutes installs the error handler, validator and the admin-only
// /v1/users routes on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	userHandler := handler.NewUserHandler(d.Service, d.Batch, d.Log)

	// --- User administration (admin JWT required) ---
	users := e.Group("/v1/users",
		middleware.Auth(d.JWTSecret),
		middleware.RBAC(d.Log, middleware.RoleAdmin),
	)
	users.POST("", userHandler.Create)
	users.POST("/batch", userHandler.Batch)
	users.GET("/translators", userHandler.ListTranslators)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.POST("/:id/enable", userHandler.Enable)
	users.POST("/:id/disable", userHandler.Disable)
}
