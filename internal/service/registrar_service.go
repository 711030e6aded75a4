package service

import (
	"context"
	"strings"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

// EventDirectory is the synchronous read surface the registrar uses to
// validate events it does not own.  The HTTP client in internal/client
// satisfies it against the event service; tests satisfy it with a fake.
type EventDirectory interface {
	GetEvent(ctx context.Context, eventID uint64) (*model.EventSummary, error)
}

// ParticipantStore is the persistence surface for participant lifecycle.
// *repository.ParticipantRepo satisfies it.
type ParticipantStore interface {
	CountActive(ctx context.Context, eventID uint64) (int, error)
	CreateWithTicket(ctx context.Context, p *repository.ParticipantRecord, maxParticipants uint32, mint func(ticketID, participantID uint64) (string, error)) (*repository.TicketRecord, error)
	GetByID(ctx context.Context, id uint64) (*repository.ParticipantRecord, error)
	DeleteWithTicket(ctx context.Context, participantID uint64) error
}

// RegistrarService creates and removes participant/ticket pairs.  The
// capacity check here is a fast path only; the store re-checks capacity
// inside the insert transaction, and the unique (event_id, user_id) index
// underneath CreateWithTicket is the single source of truth for duplicate
// registrations under concurrency.
type RegistrarService struct {
	events       EventDirectory
	participants ParticipantStore
	qrSecret     string
}

// NewRegistrarService constructs a RegistrarService.
func NewRegistrarService(events EventDirectory, participants ParticipantStore, qrSecret string) *RegistrarService {
	return &RegistrarService{events: events, participants: participants, qrSecret: qrSecret}
}

// RegisterInput carries a registration request.  Name and Email are the
// gateway-supplied profile fields denormalized onto the participant so the
// roster can be served without a cross-service join.
type RegisterInput struct {
	EventID    uint64
	UserID     uint64
	Name       string
	Email      string
	SessionIDs []uint64
}

// Register validates the event against the event service, enforces
// capacity, and creates the participant and its ACTIVE ticket in one
// logical operation with a freshly minted QR code.  A CANCELED or FINISHED
// event is rejected before any write, so registration closes the moment
// the event service flips the status, independent of the cancellation
// cascade's progress.
func (s *RegistrarService) Register(ctx context.Context, in RegisterInput) (*repository.ParticipantRecord, *repository.TicketRecord, error) {
	ev, err := s.events.GetEvent(ctx, in.EventID)
	if err != nil {
		return nil, nil, err
	}
	if ev.Status != model.EventScheduled {
		return nil, nil, repository.ErrEventNotJoinable
	}
	count, err := s.participants.CountActive(ctx, in.EventID)
	if err != nil {
		return nil, nil, err
	}
	if uint32(count) >= ev.MaxParticipants {
		return nil, nil, repository.ErrCapacityExceeded
	}
	participant := &repository.ParticipantRecord{
		EventID:    in.EventID,
		UserID:     in.UserID,
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		SessionIDs: in.SessionIDs,
	}
	ticket, err := s.participants.CreateWithTicket(ctx, participant, ev.MaxParticipants, func(ticketID, participantID uint64) (string, error) {
		return utils.NewQRCode(s.qrSecret, ticketID, participantID)
	})
	if err != nil {
		return nil, nil, err
	}
	return participant, ticket, nil
}

// Lookup loads one participant with its check-in state.
func (s *RegistrarService) Lookup(ctx context.Context, participantID uint64) (*repository.ParticipantRecord, error) {
	return s.participants.GetByID(ctx, participantID)
}

// Unregister deletes a participant/ticket pair.  The store rejects the
// delete once the ticket has left ACTIVE, so attendance history survives
// check-in.
func (s *RegistrarService) Unregister(ctx context.Context, participantID uint64) error {
	return s.participants.DeleteWithTicket(ctx, participantID)
}
