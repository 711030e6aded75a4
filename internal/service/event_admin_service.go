package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// EventAdminStore is the persistence surface for organizer-facing event
// operations.  *repository.EventRepo satisfies it.
type EventAdminStore interface {
	Create(ctx context.Context, ev *repository.EventRecord) error
	GetByID(ctx context.Context, id uint64) (*repository.EventRecord, error)
	Cancel(ctx context.Context, id uint64) (bool, error)
	ReplaceAttachments(ctx context.Context, eventID uint64, images []string, video *string) ([]string, *string, error)
}

// CascadePublisher publishes the asynchronous side effects of event
// mutations.  *queue.Publisher satisfies it.
type CascadePublisher interface {
	PublishEventCancelled(ctx context.Context, msg queue.EventCancelledMessage) error
	PublishFilesDelete(ctx context.Context, msg queue.FilesDeleteMessage) error
}

// EventAdminService owns the synchronous half of the consistency
// coordinator: ownership checks, the event status flip, and the attachment
// swap.  The asynchronous half (ticket invalidation, file cleanup) is
// pushed onto the broker and handled by the owning services' consumers.
type EventAdminService struct {
	events    EventAdminStore
	publisher CascadePublisher
	now       func() time.Time
}

// NewEventAdminService constructs an EventAdminService.
func NewEventAdminService(events EventAdminStore, publisher CascadePublisher) *EventAdminService {
	return &EventAdminService{
		events:    events,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateEventInput carries the organizer-supplied fields for a new event.
type CreateEventInput struct {
	OwnerID         uint64
	Title           string
	MaxParticipants uint32
	ImageURLs       []string
	VideoURL        *string
}

// CreateEvent validates the input and stores a new SCHEDULED event.
func (s *EventAdminService) CreateEvent(ctx context.Context, in CreateEventInput) (*repository.EventRecord, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("event title is required")
	}
	if in.MaxParticipants == 0 {
		return nil, fmt.Errorf("max_participants must be a positive integer")
	}
	ev := &repository.EventRecord{
		OwnerID:         in.OwnerID,
		Title:           in.Title,
		MaxParticipants: in.MaxParticipants,
		ImageURLs:       in.ImageURLs,
		VideoURL:        in.VideoURL,
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// GetSummary returns the cross-service read model for an event.
func (s *EventAdminService) GetSummary(ctx context.Context, eventID uint64) (*model.EventSummary, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &model.EventSummary{
		ID:              ev.ID,
		OwnerID:         ev.OwnerID,
		Status:          ev.Status,
		MaxParticipants: ev.MaxParticipants,
	}, nil
}

// CheckOwnership reports whether userID created the event.  It is a
// synchronous read-only check used to authorize invite, cancel and file
// operations; it triggers no cascade.
func (s *EventAdminService) CheckOwnership(ctx context.Context, eventID, userID uint64) (bool, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return false, err
	}
	return ev.OwnerID == userID, nil
}

// CancelEvent flips the event to CANCELED and publishes the durable
// cancellation message that drives the ticket-invalidation cascade.  The
// flip is synchronous and authoritative: once it commits, registration is
// closed even before the cascade runs.  A publish failure is logged, not
// propagated; the consumer side tolerates redelivery, and asynchronous
// failures are surfaced through logs only.
func (s *EventAdminService) CancelEvent(ctx context.Context, eventID, organizerID uint64) error {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if ev.OwnerID != organizerID {
		return repository.ErrForbidden
	}
	flipped, err := s.events.Cancel(ctx, eventID)
	if err != nil {
		return err
	}
	if !flipped {
		// Already canceled: idempotent success, no second cascade.
		return nil
	}
	msg := queue.EventCancelledMessage{
		MessageID:  uuid.NewString(),
		EventID:    eventID,
		CanceledAt: s.now().Format(time.RFC3339),
	}
	if err := s.publisher.PublishEventCancelled(ctx, msg); err != nil {
		log.Printf("event-admin: publish event.cancelled for event %d failed: %v", eventID, err)
	}
	return nil
}

// ReplaceAttachmentsInput carries the new attachment values.  A nil slice
// or pointer leaves that slot untouched.
type ReplaceAttachmentsInput struct {
	ImageURLs []string
	VideoURL  *string
}

// ReplaceAttachments persists new attachment values and publishes a
// fire-and-forget cleanup message for the orphaned files.  URLs carried
// over into the new value are still referenced and are excluded from the
// cleanup.  The window between persisting the new value and the
// asynchronous deletion is an accepted eventual-consistency risk.
func (s *EventAdminService) ReplaceAttachments(ctx context.Context, eventID, organizerID uint64, in ReplaceAttachmentsInput) error {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if ev.OwnerID != organizerID {
		return repository.ErrForbidden
	}
	oldImages, oldVideo, err := s.events.ReplaceAttachments(ctx, eventID, in.ImageURLs, in.VideoURL)
	if err != nil {
		return err
	}
	orphanImages := orphanedURLs(oldImages, in.ImageURLs)
	orphanVideo := oldVideo
	if orphanVideo != nil && in.VideoURL != nil && *orphanVideo == *in.VideoURL {
		orphanVideo = nil
	}
	if len(orphanImages) == 0 && orphanVideo == nil {
		return nil
	}
	msg := queue.FilesDeleteMessage{
		MessageID: uuid.NewString(),
		URLs:      orphanImages,
		VideoURL:  orphanVideo,
	}
	if err := s.publisher.PublishFilesDelete(ctx, msg); err != nil {
		log.Printf("event-admin: publish files.delete for event %d failed: %v", eventID, err)
	}
	return nil
}

// orphanedURLs returns the old URLs that do not appear in the new set.
func orphanedURLs(old, next []string) []string {
	kept := make(map[string]struct{}, len(next))
	for _, u := range next {
		kept[u] = struct{}{}
	}
	var orphans []string
	for _, u := range old {
		if _, ok := kept[u]; !ok {
			orphans = append(orphans, u)
		}
	}
	return orphans
}
