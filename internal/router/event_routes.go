package router // router defines how HTTP routes are registered for each service

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
)

// RegisterEventService mounts the event service's routes.  Organizer
// mutations require a valid JWT; the summary and ownership endpoints are
// open because other services call them service-to-service, and invite
// redemption is authenticated by the signed token in the request body.
func RegisterEventService(e *echo.Echo, events *handler.EventAdminHandler, invites *handler.InviteHandler, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	pub := e.Group("/v1")
	pub.GET("/events/:id", events.Get)
	pub.GET("/events/:id/ownership", events.CheckOwnership)
	pub.POST("/events/:id/invites/redeem", invites.Redeem)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.POST("/events", events.Create)
	auth.POST("/events/:id/cancel", events.Cancel)
	auth.PUT("/events/:id/attachments", events.ReplaceAttachments)
	auth.POST("/events/:id/invites", invites.IssueInvites)
}
