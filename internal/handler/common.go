package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// domainError maps a sentinel error from the repository/service layers to
// an HTTP response with a structured {error, code} body.  Unknown errors
// become opaque 500s so internal details never reach the gateway.
func domainError(c echo.Context, err error) error {
	type mapping struct {
		status int
		code   string
	}
	table := []struct {
		sentinel error
		mapping
	}{
		{repository.ErrEventNotFound, mapping{http.StatusNotFound, "event_not_found"}},
		{repository.ErrParticipantNotFound, mapping{http.StatusNotFound, "participant_not_found"}},
		{repository.ErrTicketNotFound, mapping{http.StatusNotFound, "ticket_not_found"}},
		{repository.ErrRecipientNotFound, mapping{http.StatusNotFound, "recipient_not_found"}},
		{repository.ErrForbidden, mapping{http.StatusForbidden, "forbidden"}},
		{repository.ErrAlreadyRegistered, mapping{http.StatusConflict, "already_registered"}},
		{repository.ErrCapacityExceeded, mapping{http.StatusConflict, "capacity_exceeded"}},
		{repository.ErrEventNotJoinable, mapping{http.StatusConflict, "event_not_joinable"}},
		{repository.ErrEventUnavailable, mapping{http.StatusConflict, "event_unavailable"}},
		{repository.ErrStateConflict, mapping{http.StatusConflict, "invalid_state"}},
		{repository.ErrTokenInvalid, mapping{http.StatusUnauthorized, "token_invalid"}},
		{repository.ErrTokenExpired, mapping{http.StatusUnauthorized, "token_expired"}},
		{repository.ErrUpstreamUnavailable, mapping{http.StatusServiceUnavailable, "upstream_unavailable"}},
	}
	for _, m := range table {
		if errors.Is(err, m.sentinel) {
			return c.JSON(m.status, echo.Map{"error": m.sentinel.Error(), "code": m.code})
		}
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": "internal_error"})
}
