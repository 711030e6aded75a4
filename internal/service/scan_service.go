package service

import (
	"context"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

// TicketStore is the persistence surface for the ticket state machine.
// *repository.TicketRepo satisfies it.
type TicketStore interface {
	GetByCode(ctx context.Context, code string) (*repository.TicketRecord, *repository.ParticipantRecord, error)
	GetByID(ctx context.Context, id uint64) (*repository.TicketRecord, *repository.ParticipantRecord, error)
	Transition(ctx context.Context, ticketID, participantID uint64, from, to string, at time.Time) (bool, error)
	Cancel(ctx context.Context, ticketID uint64) (bool, error)
}

// RosterInvalidator drops the cached roster for an event whose check-in
// state just changed.
type RosterInvalidator interface {
	Invalidate(ctx context.Context, eventID uint64)
}

// ScanService resolves QR scan codes and drives the ticket state machine:
// ACTIVE -> CHECKED_IN -> CHECKED_OUT, with CANCELED reachable from any
// non-terminal state.  Each step is an atomic compare-and-swap in the
// store, so two concurrent scans can never both consume the same state.
type ScanService struct {
	tickets TicketStore
	roster  RosterInvalidator
	secret  string
	now     func() time.Time
}

// NewScanService constructs a ScanService.  roster may be nil when no
// cache is configured.
func NewScanService(tickets TicketStore, roster RosterInvalidator, secret string) *ScanService {
	return &ScanService{
		tickets: tickets,
		roster:  roster,
		secret:  secret,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ScanResult reports the ticket state after a scan.  Finalized marks a
// scan that found the ticket already in a terminal state and changed
// nothing; duplicate scans from flaky readers land here and are not
// errors.
type ScanResult struct {
	Ticket      *repository.TicketRecord
	Participant *repository.ParticipantRecord
	Finalized   bool
}

// maxScanAttempts bounds the CAS retry loop.  A failed swap means another
// scan advanced the ticket, and the machine has only two forward steps, so
// three attempts always reach a decision.
const maxScanAttempts = 3

// ScanTicket resolves a scan code, verifies its HMAC binding and applies
// the transition for the ticket's current status.  Stamps are truncated
// to whole seconds up front because the DATETIME columns they land in
// hold no finer resolution.  Check-out is forced strictly after check-in
// at that stored granularity: when the truncated clock would produce an
// equal or earlier value, the stamp advances by one second instead of
// rejecting the scan.
func (s *ScanService) ScanTicket(ctx context.Context, code string) (*ScanResult, error) {
	if _, err := utils.ParseQRCode(code); err != nil {
		return nil, err
	}
	ticket, participant, err := s.tickets.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := utils.VerifyQRCode(s.secret, code, ticket.ID, participant.ID); err != nil {
		return nil, err
	}
	for attempt := 0; attempt < maxScanAttempts; attempt++ {
		switch ticket.Status {
		case model.TicketActive:
			at := s.now().Truncate(time.Second)
			ok, err := s.tickets.Transition(ctx, ticket.ID, participant.ID, model.TicketActive, model.TicketCheckedIn, at)
			if err != nil {
				return nil, err
			}
			if ok {
				ticket.Status = model.TicketCheckedIn
				participant.CheckedInAt = &at
				s.invalidate(ctx, participant.EventID)
				return &ScanResult{Ticket: ticket, Participant: participant, Finalized: false}, nil
			}
		case model.TicketCheckedIn:
			at := s.now().Truncate(time.Second)
			if participant.CheckedInAt != nil {
				in := participant.CheckedInAt.Truncate(time.Second)
				if !at.After(in) {
					at = in.Add(time.Second)
				}
			}
			ok, err := s.tickets.Transition(ctx, ticket.ID, participant.ID, model.TicketCheckedIn, model.TicketCheckedOut, at)
			if err != nil {
				return nil, err
			}
			if ok {
				ticket.Status = model.TicketCheckedOut
				ticket.UsedAt = &at
				participant.CheckedOutAt = &at
				s.invalidate(ctx, participant.EventID)
				return &ScanResult{Ticket: ticket, Participant: participant, Finalized: false}, nil
			}
		default:
			// CHECKED_OUT or CANCELED: nothing to do, not an error.
			return &ScanResult{Ticket: ticket, Participant: participant, Finalized: true}, nil
		}
		// CAS lost: another scan moved the ticket.  Reload and decide
		// against the fresh state.
		ticket, participant, err = s.tickets.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
	}
	return &ScanResult{Ticket: ticket, Participant: participant, Finalized: model.TicketFinalized(ticket.Status)}, nil
}

// CancelTicket forces a ticket to CANCELED from any non-terminal state.
// It is used by the cancellation cascade and by organizer-initiated
// removal, and is a no-op on tickets already terminal.
func (s *ScanService) CancelTicket(ctx context.Context, ticketID uint64) error {
	ticket, participant, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	transitioned, err := s.tickets.Cancel(ctx, ticket.ID)
	if err != nil {
		return err
	}
	if transitioned {
		s.invalidate(ctx, participant.EventID)
	}
	return nil
}

func (s *ScanService) invalidate(ctx context.Context, eventID uint64) {
	if s.roster != nil {
		s.roster.Invalidate(ctx, eventID)
	}
}
