package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/service"
)

// ScanHandler exposes the QR scan endpoint used by venue readers.
type ScanHandler struct {
	scanner *service.ScanService
}

// NewScanHandler constructs a ScanHandler.
func NewScanHandler(scanner *service.ScanService) *ScanHandler {
	return &ScanHandler{scanner: scanner}
}

type scanRequest struct {
	Code string `json:"code"`
}

// Scan handles POST /v1/tickets/scan.  The same endpoint performs
// check-in and check-out; which one happens depends on the ticket's
// current state.  finalized=true means the ticket was already terminal
// and nothing changed.
func (h *ScanHandler) Scan(c echo.Context) error {
	var req scanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body", "code": "bad_request"})
	}
	if req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code is required", "code": "bad_request"})
	}
	res, err := h.scanner.ScanTicket(c.Request().Context(), req.Code)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ticket": echo.Map{
			"id":             res.Ticket.ID,
			"participant_id": res.Ticket.ParticipantID,
			"status":         res.Ticket.Status,
			"used_at":        res.Ticket.UsedAt,
		},
		"participant": echo.Map{
			"id":             res.Participant.ID,
			"event_id":       res.Participant.EventID,
			"checked_in_at":  res.Participant.CheckedInAt,
			"checked_out_at": res.Participant.CheckedOutAt,
		},
		"finalized": res.Finalized,
	})
}

// CancelTicket handles POST /v1/tickets/:id/cancel for organizer-initiated
// removal.  Canceling an already terminal ticket is a no-op.
func (h *ScanHandler) CancelTicket(c echo.Context) error {
	ticketID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id", "code": "bad_request"})
	}
	if err := h.scanner.CancelTicket(c.Request().Context(), ticketID); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_id": ticketID, "status": "CANCELED"})
}
