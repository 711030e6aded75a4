package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
)

// RegisterTicketService mounts the ticket service's routes.  The scan
// endpoint additionally carries the Redis token-bucket limiter because
// venue readers retry aggressively on flaky networks.
func RegisterTicketService(
	e *echo.Echo,
	participants *handler.ParticipantHandler,
	scans *handler.ScanHandler,
	roster *handler.RosterHandler,
	jwtSecret string,
	limiter echo.MiddlewareFunc,
) {
	e.GET("/healthz", handler.Health)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.POST("/events/:id/participants", participants.Register)
	auth.GET("/participants/:id", participants.Get)
	auth.DELETE("/participants/:id", participants.Unregister)
	auth.GET("/events/:id/roster", roster.Get)
	auth.POST("/tickets/:id/cancel", scans.CancelTicket)
	auth.POST("/tickets/scan", scans.Scan, limiter)
}
