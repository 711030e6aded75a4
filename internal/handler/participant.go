package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// ParticipantHandler exposes registration and unregistration.
type ParticipantHandler struct {
	registrar *service.RegistrarService
}

// NewParticipantHandler constructs a ParticipantHandler.
func NewParticipantHandler(registrar *service.RegistrarService) *ParticipantHandler {
	return &ParticipantHandler{registrar: registrar}
}

type registerRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	SessionIDs []uint64 `json:"session_ids"`
}

func participantJSON(p *repository.ParticipantRecord) echo.Map {
	return echo.Map{
		"id":          p.ID,
		"event_id":    p.EventID,
		"user_id":     p.UserID,
		"name":        p.Name,
		"email":       p.Email,
		"session_ids": p.SessionIDs,
		"status":      p.Status,
		"created_at":  p.CreatedAt,
	}
}

func ticketJSON(t *repository.TicketRecord) echo.Map {
	return echo.Map{
		"id":             t.ID,
		"participant_id": t.ParticipantID,
		"qr_code":        t.QRCode,
		"status":         t.Status,
		"used_at":        t.UsedAt,
		"created_at":     t.CreatedAt,
	}
}

// Register handles POST /v1/events/:id/participants.  The registering
// user comes from the access token; name and email are the denormalized
// profile fields the roster is served from.
func (h *ParticipantHandler) Register(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id", "code": "bad_request"})
	}
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body", "code": "bad_request"})
	}
	participant, ticket, err := h.registrar.Register(c.Request().Context(), service.RegisterInput{
		EventID:    eventID,
		UserID:     userID,
		Name:       req.Name,
		Email:      req.Email,
		SessionIDs: req.SessionIDs,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"participant": participantJSON(participant),
		"ticket":      ticketJSON(ticket),
	})
}

// Get handles GET /v1/participants/:id.  Organizer tooling uses it to
// inspect a registration together with its check-in state.
func (h *ParticipantHandler) Get(c echo.Context) error {
	participantID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid participant id", "code": "bad_request"})
	}
	p, err := h.registrar.Lookup(c.Request().Context(), participantID)
	if err != nil {
		return domainError(c, err)
	}
	body := participantJSON(p)
	if p.CheckedInAt != nil {
		body["checked_in_at"] = p.CheckedInAt
	}
	if p.CheckedOutAt != nil {
		body["checked_out_at"] = p.CheckedOutAt
	}
	return c.JSON(http.StatusOK, body)
}

// Unregister handles DELETE /v1/participants/:id.  The delete is refused
// once the participant's ticket has been scanned, so attendance history
// survives.
func (h *ParticipantHandler) Unregister(c echo.Context) error {
	participantID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid participant id", "code": "bad_request"})
	}
	if err := h.registrar.Unregister(c.Request().Context(), participantID); err != nil {
		return domainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
