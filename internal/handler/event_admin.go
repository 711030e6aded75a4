package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// EventAdminHandler exposes organizer-facing event operations and the
// cross-service read endpoints other services call.
type EventAdminHandler struct {
	events *service.EventAdminService
}

// NewEventAdminHandler constructs an EventAdminHandler.
func NewEventAdminHandler(events *service.EventAdminService) *EventAdminHandler {
	return &EventAdminHandler{events: events}
}

type createEventRequest struct {
	Title           string   `json:"title"`
	MaxParticipants uint32   `json:"max_participants"`
	ImageURLs       []string `json:"image_urls"`
	VideoURL        *string  `json:"video_url"`
}

func eventJSON(ev *repository.EventRecord) echo.Map {
	return echo.Map{
		"id":               ev.ID,
		"owner_id":         ev.OwnerID,
		"title":            ev.Title,
		"status":           ev.Status,
		"max_participants": ev.MaxParticipants,
		"image_urls":       ev.ImageURLs,
		"video_url":        ev.VideoURL,
		"created_at":       ev.CreatedAt,
	}
}

// Create handles POST /v1/events.
func (h *EventAdminHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthorized"})
	}
	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body", "code": "bad_request"})
	}
	ev, err := h.events.CreateEvent(c.Request().Context(), service.CreateEventInput{
		OwnerID:         ownerID,
		Title:           req.Title,
		MaxParticipants: req.MaxParticipants,
		ImageURLs:       req.ImageURLs,
		VideoURL:        req.VideoURL,
	})
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error(), "code": "validation_failed"})
	}
	return c.JSON(http.StatusCreated, eventJSON(ev))
}

// Get handles GET /v1/events/:id.  It serves the compact summary the
// ticket service consumes when validating registrations.
func (h *EventAdminHandler) Get(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id", "code": "bad_request"})
	}
	summary, err := h.events.GetSummary(c.Request().Context(), eventID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// CheckOwnership handles GET /v1/events/:id/ownership?user_id=N.  It is a
// read-only authorization probe and never triggers cascades.
func (h *EventAdminHandler) CheckOwnership(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id", "code": "bad_request"})
	}
	userID, err := strconv.ParseUint(c.QueryParam("user_id"), 10, 64)
	if err != nil || userID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id", "code": "bad_request"})
	}
	isOwner, err := h.events.CheckOwnership(c.Request().Context(), eventID, userID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "user_id": userID, "is_owner": isOwner})
}

// Cancel handles POST /v1/events/:id/cancel.  The status flip is
// synchronous; ticket invalidation rides the broker.
func (h *EventAdminHandler) Cancel(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id", "code": "bad_request"})
	}
	if err := h.events.CancelEvent(c.Request().Context(), eventID, organizerID); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "status": "CANCELED"})
}

type replaceAttachmentsRequest struct {
	ImageURLs []string `json:"image_urls"`
	VideoURL  *string  `json:"video_url"`
}

// ReplaceAttachments handles PUT /v1/events/:id/attachments.  Replaced
// files are cleaned up asynchronously by the file service.
func (h *EventAdminHandler) ReplaceAttachments(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id", "code": "bad_request"})
	}
	var req replaceAttachmentsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body", "code": "bad_request"})
	}
	in := service.ReplaceAttachmentsInput{ImageURLs: req.ImageURLs, VideoURL: req.VideoURL}
	if err := h.events.ReplaceAttachments(c.Request().Context(), eventID, organizerID, in); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "status": "updated"})
}
