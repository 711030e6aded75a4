package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// InviteHandler exposes the invitation protocol over HTTP.
type InviteHandler struct {
	invites *service.InviteService
}

// NewInviteHandler constructs an InviteHandler.
func NewInviteHandler(invites *service.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

type issueInvitesRequest struct {
	Recipients []struct {
		Email  string  `json:"email"`
		UserID *uint64 `json:"user_id"`
	} `json:"recipients"`
}

// IssueInvites handles POST /v1/events/:id/invites.  Only the event's
// creator may invite, enforced by the service layer.
func (h *InviteHandler) IssueInvites(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id", "code": "bad_request"})
	}
	var req issueInvitesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body", "code": "bad_request"})
	}
	if len(req.Recipients) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "recipients are required", "code": "bad_request"})
	}
	recipients := make([]repository.InviteRecipient, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		recipients = append(recipients, repository.InviteRecipient{Email: r.Email, UserID: r.UserID})
	}
	issued, err := h.invites.IssueInvites(c.Request().Context(), eventID, organizerID, recipients)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"invites": issued})
}

type redeemInviteRequest struct {
	Token    string `json:"token"`
	Decision string `json:"decision"`
}

// Redeem handles POST /v1/events/:id/invites/redeem.  The endpoint is
// unauthenticated: the signed token embedded in the emailed link is the
// credential.
func (h *InviteHandler) Redeem(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id", "code": "bad_request"})
	}
	var req redeemInviteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body", "code": "bad_request"})
	}
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required", "code": "bad_request"})
	}
	var status string
	switch req.Decision {
	case "accept":
		status = model.InviteAccepted
	case "decline":
		status = model.InviteDeclined
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "decision must be accept or decline", "code": "bad_request"})
	}
	if err := h.invites.Redeem(c.Request().Context(), eventID, req.Token, status); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": status})
}
