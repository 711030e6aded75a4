// Package service implements the domain operations behind the HTTP
// handlers: invitation issuance and redemption, participant registration,
// ticket scanning and the cross-service cancellation flow.  Services
// depend on narrow store interfaces so the repository layer can be swapped
// for fakes in tests.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

// EventStore is the persistence surface the invitation protocol needs.
// *repository.EventRepo satisfies it.
type EventStore interface {
	GetByID(ctx context.Context, id uint64) (*repository.EventRecord, error)
	AddInvites(ctx context.Context, eventID uint64, recipients []repository.InviteRecipient) ([]repository.InvitedUserRecord, error)
	GetInvite(ctx context.Context, eventID uint64, email string) (*repository.InvitedUserRecord, error)
	SetInviteDecision(ctx context.Context, eventID uint64, email, status string) (bool, error)
}

// InviteService issues and redeems single-use, time-bound invitation
// tokens.  Tokens are self-contained signed credentials; only the effect
// of redemption (the invited user's status) is persisted.
type InviteService struct {
	events EventStore
	secret string
	ttl    time.Duration
}

// NewInviteService constructs an InviteService.  The secret signs
// invitation tokens and ttl bounds their lifetime.
func NewInviteService(events EventStore, secret string, ttl time.Duration) *InviteService {
	return &InviteService{events: events, secret: secret, ttl: ttl}
}

// IssuedInvite pairs a recipient with the minted token that gets embedded
// into the emailed link.  Dispatching the email itself belongs to the
// external notifier; this component only mints state and tokens.
type IssuedInvite struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueInvites appends recipients to the event's invitation list and mints
// one signed token per recipient.  Only the event's creator can issue
// invitations, and only while the event is SCHEDULED.  Recipients already
// on the list keep their existing entry but still receive a fresh token,
// so re-inviting resends a working link without duplicating state.
func (s *InviteService) IssueInvites(ctx context.Context, eventID, organizerID uint64, recipients []repository.InviteRecipient) ([]IssuedInvite, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.OwnerID != organizerID {
		return nil, repository.ErrForbidden
	}
	if ev.Status != model.EventScheduled {
		return nil, repository.ErrEventUnavailable
	}
	// Normalize and deduplicate recipient emails within the batch.
	seen := make(map[string]struct{})
	clean := make([]repository.InviteRecipient, 0, len(recipients))
	for _, rec := range recipients {
		email := strings.ToLower(strings.TrimSpace(rec.Email))
		if email == "" || !strings.Contains(email, "@") {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		clean = append(clean, repository.InviteRecipient{Email: email, UserID: rec.UserID})
	}
	if len(clean) == 0 {
		return []IssuedInvite{}, nil
	}
	invites, err := s.events.AddInvites(ctx, eventID, clean)
	if err != nil {
		return nil, err
	}
	issued := make([]IssuedInvite, 0, len(invites))
	for _, inv := range invites {
		token, err := utils.NewInviteToken(s.secret, eventID, inv.Email, s.ttl)
		if err != nil {
			return nil, err
		}
		issued = append(issued, IssuedInvite{Email: inv.Email, Token: token.Token, ExpiresAt: token.Exp})
	}
	return issued, nil
}

// Redeem verifies an invitation token and records the recipient's
// decision.  Redemption is idempotent: once the invitation is in a
// terminal state, replaying the same emailed link succeeds without
// mutating anything, which tolerates double-clicks and email client
// prefetching.
func (s *InviteService) Redeem(ctx context.Context, eventID uint64, rawToken, status string) error {
	claims, err := utils.ParseInviteToken(s.secret, rawToken)
	if err != nil {
		return err
	}
	if claims.EventID != eventID {
		return repository.ErrTokenInvalid
	}
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if ev.Status == model.EventCanceled {
		return repository.ErrEventUnavailable
	}
	inv, err := s.events.GetInvite(ctx, eventID, claims.Email)
	if err != nil {
		return err
	}
	if inv.Status != model.InvitePending {
		// Terminal already: idempotent replay.
		return nil
	}
	// The conditional update only moves PENDING entries, so losing a race
	// with a concurrent redemption still resolves to success.
	_, err = s.events.SetInviteDecision(ctx, eventID, claims.Email, status)
	return err
}
