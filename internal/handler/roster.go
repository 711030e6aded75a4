package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/cache"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// RosterHandler serves the check-in/check-out roster for an event,
// read-through the Redis cache.
type RosterHandler struct {
	participants *repository.ParticipantRepo
	roster       *cache.RosterCache
}

// NewRosterHandler constructs a RosterHandler.  roster may be nil; reads
// then go straight to the database.
func NewRosterHandler(participants *repository.ParticipantRepo, roster *cache.RosterCache) *RosterHandler {
	return &RosterHandler{participants: participants, roster: roster}
}

// Get handles GET /v1/events/:id/roster.
func (h *RosterHandler) Get(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id", "code": "bad_request"})
	}
	load := func(ctx context.Context) ([]model.RosterEntry, error) {
		return h.participants.ListRoster(ctx, eventID)
	}
	entries, err := h.roster.GetOrLoad(c.Request().Context(), eventID, load)
	if err != nil {
		return domainError(c, err)
	}
	if entries == nil {
		entries = []model.RosterEntry{}
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "participants": entries})
}
