package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
)

// RegisterFileService mounts the file service's routes.  Asset
// registration requires a valid JWT; deletion happens only through the
// broker consumer.
func RegisterFileService(e *echo.Echo, files *handler.FileHandler, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.POST("/files", files.Register)
}
