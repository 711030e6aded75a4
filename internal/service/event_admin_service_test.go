package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// fakeEventAdminStore implements EventAdminStore with the conditional
// cancel semantics of the SQL repository.
type fakeEventAdminStore struct {
	event  *repository.EventRecord
	nextID uint64
}

func (f *fakeEventAdminStore) Create(_ context.Context, ev *repository.EventRecord) error {
	f.nextID++
	ev.ID = f.nextID
	ev.Status = model.EventScheduled
	f.event = ev
	return nil
}

func (f *fakeEventAdminStore) GetByID(_ context.Context, id uint64) (*repository.EventRecord, error) {
	if f.event == nil || f.event.ID != id {
		return nil, repository.ErrEventNotFound
	}
	return f.event, nil
}

func (f *fakeEventAdminStore) Cancel(_ context.Context, id uint64) (bool, error) {
	if f.event == nil || f.event.ID != id {
		return false, repository.ErrEventNotFound
	}
	switch f.event.Status {
	case model.EventScheduled:
		f.event.Status = model.EventCanceled
		return true, nil
	case model.EventCanceled:
		return false, nil
	default:
		return false, repository.ErrStateConflict
	}
}

func (f *fakeEventAdminStore) ReplaceAttachments(_ context.Context, _ uint64, images []string, video *string) ([]string, *string, error) {
	oldImages, oldVideo := f.event.ImageURLs, f.event.VideoURL
	if images != nil {
		f.event.ImageURLs = images
	}
	if video != nil {
		f.event.VideoURL = video
	}
	return oldImages, oldVideo, nil
}

// fakePublisher captures published cascade messages.
type fakePublisher struct {
	cancelled []queue.EventCancelledMessage
	deletes   []queue.FilesDeleteMessage
	err       error
}

func (f *fakePublisher) PublishEventCancelled(_ context.Context, msg queue.EventCancelledMessage) error {
	f.cancelled = append(f.cancelled, msg)
	return f.err
}

func (f *fakePublisher) PublishFilesDelete(_ context.Context, msg queue.FilesDeleteMessage) error {
	f.deletes = append(f.deletes, msg)
	return f.err
}

func newAdminFixture(status string) (*fakeEventAdminStore, *fakePublisher, *EventAdminService) {
	store := &fakeEventAdminStore{
		event:  &repository.EventRecord{ID: 1, OwnerID: 10, Title: "meetup", Status: status, MaxParticipants: 50},
		nextID: 1,
	}
	pub := &fakePublisher{}
	svc := NewEventAdminService(store, pub)
	svc.now = func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }
	return store, pub, svc
}

func TestCreateEventValidation(t *testing.T) {
	t.Parallel()

	_, _, svc := newAdminFixture(model.EventScheduled)

	if _, err := svc.CreateEvent(context.Background(), CreateEventInput{OwnerID: 10, Title: "  ", MaxParticipants: 5}); err == nil {
		t.Error("blank title accepted")
	}
	if _, err := svc.CreateEvent(context.Background(), CreateEventInput{OwnerID: 10, Title: "demo", MaxParticipants: 0}); err == nil {
		t.Error("zero capacity accepted")
	}
	ev, err := svc.CreateEvent(context.Background(), CreateEventInput{OwnerID: 10, Title: " demo ", MaxParticipants: 5})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.ID == 0 || ev.Status != model.EventScheduled || ev.Title != "demo" {
		t.Fatalf("created event %+v", ev)
	}
}

func TestCancelEventPublishesCascadeOnce(t *testing.T) {
	t.Parallel()

	_, pub, svc := newAdminFixture(model.EventScheduled)

	if err := svc.CancelEvent(context.Background(), 1, 10); err != nil {
		t.Fatalf("CancelEvent: %v", err)
	}
	if len(pub.cancelled) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.cancelled))
	}
	msg := pub.cancelled[0]
	if msg.EventID != 1 || msg.MessageID == "" || msg.CanceledAt == "" {
		t.Fatalf("message %+v missing fields", msg)
	}

	// Repeating the cancel is an idempotent success without a second
	// cascade.
	if err := svc.CancelEvent(context.Background(), 1, 10); err != nil {
		t.Fatalf("repeat CancelEvent: %v", err)
	}
	if len(pub.cancelled) != 1 {
		t.Fatalf("idempotent cancel published again: %d messages", len(pub.cancelled))
	}
}

func TestCancelEventGuards(t *testing.T) {
	t.Parallel()

	t.Run("non-owner", func(t *testing.T) {
		_, pub, svc := newAdminFixture(model.EventScheduled)
		if err := svc.CancelEvent(context.Background(), 1, 99); !errors.Is(err, repository.ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
		if len(pub.cancelled) != 0 {
			t.Fatal("forbidden cancel still published")
		}
	})
	t.Run("finished event", func(t *testing.T) {
		_, _, svc := newAdminFixture(model.EventFinished)
		if err := svc.CancelEvent(context.Background(), 1, 10); !errors.Is(err, repository.ErrStateConflict) {
			t.Fatalf("err = %v, want ErrStateConflict", err)
		}
	})
	t.Run("publish failure does not fail the flip", func(t *testing.T) {
		store, pub, svc := newAdminFixture(model.EventScheduled)
		pub.err = errors.New("broker down")
		if err := svc.CancelEvent(context.Background(), 1, 10); err != nil {
			t.Fatalf("CancelEvent: %v", err)
		}
		if store.event.Status != model.EventCanceled {
			t.Fatalf("status = %q, want CANCELED", store.event.Status)
		}
	})
}

func TestCheckOwnership(t *testing.T) {
	t.Parallel()

	_, _, svc := newAdminFixture(model.EventScheduled)

	owner, err := svc.CheckOwnership(context.Background(), 1, 10)
	if err != nil || !owner {
		t.Fatalf("owner check = (%v, %v), want (true, nil)", owner, err)
	}
	other, err := svc.CheckOwnership(context.Background(), 1, 99)
	if err != nil || other {
		t.Fatalf("stranger check = (%v, %v), want (false, nil)", other, err)
	}
	if _, err := svc.CheckOwnership(context.Background(), 2, 10); !errors.Is(err, repository.ErrEventNotFound) {
		t.Fatalf("err = %v, want ErrEventNotFound", err)
	}
}

func TestReplaceAttachmentsPublishesOrphans(t *testing.T) {
	t.Parallel()

	video := "https://cdn.example.com/v1.mp4"
	store, pub, svc := newAdminFixture(model.EventScheduled)
	store.event.ImageURLs = []string{"https://cdn.example.com/a.jpg"}
	store.event.VideoURL = &video

	newVideo := "https://cdn.example.com/v2.mp4"
	in := ReplaceAttachmentsInput{ImageURLs: []string{"https://cdn.example.com/b.jpg"}, VideoURL: &newVideo}
	if err := svc.ReplaceAttachments(context.Background(), 1, 10, in); err != nil {
		t.Fatalf("ReplaceAttachments: %v", err)
	}
	if len(pub.deletes) != 1 {
		t.Fatalf("published %d cleanup messages, want 1", len(pub.deletes))
	}
	msg := pub.deletes[0]
	if len(msg.URLs) != 1 || msg.URLs[0] != "https://cdn.example.com/a.jpg" {
		t.Fatalf("cleanup urls = %v", msg.URLs)
	}
	if msg.VideoURL == nil || *msg.VideoURL != video {
		t.Fatalf("cleanup video = %v, want old video", msg.VideoURL)
	}

	if err := svc.ReplaceAttachments(context.Background(), 1, 99, in); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestReplaceAttachmentsKeepsCarriedOverURLs(t *testing.T) {
	t.Parallel()

	video := "https://cdn.example.com/v1.mp4"
	store, pub, svc := newAdminFixture(model.EventScheduled)
	store.event.ImageURLs = []string{"https://cdn.example.com/keep.jpg", "https://cdn.example.com/drop.jpg"}
	store.event.VideoURL = &video

	t.Run("partial overlap cleans only the removed image", func(t *testing.T) {
		in := ReplaceAttachmentsInput{
			ImageURLs: []string{"https://cdn.example.com/keep.jpg", "https://cdn.example.com/new.jpg"},
			VideoURL:  &video,
		}
		if err := svc.ReplaceAttachments(context.Background(), 1, 10, in); err != nil {
			t.Fatalf("ReplaceAttachments: %v", err)
		}
		if len(pub.deletes) != 1 {
			t.Fatalf("published %d cleanup messages, want 1", len(pub.deletes))
		}
		msg := pub.deletes[0]
		if len(msg.URLs) != 1 || msg.URLs[0] != "https://cdn.example.com/drop.jpg" {
			t.Fatalf("cleanup urls = %v, want only the dropped image", msg.URLs)
		}
		if msg.VideoURL != nil {
			t.Fatalf("unchanged video scheduled for cleanup: %v", *msg.VideoURL)
		}
	})
	t.Run("identical replacement publishes nothing", func(t *testing.T) {
		in := ReplaceAttachmentsInput{
			ImageURLs: []string{"https://cdn.example.com/keep.jpg", "https://cdn.example.com/new.jpg"},
			VideoURL:  &video,
		}
		if err := svc.ReplaceAttachments(context.Background(), 1, 10, in); err != nil {
			t.Fatalf("ReplaceAttachments: %v", err)
		}
		if len(pub.deletes) != 1 {
			t.Fatalf("no-op replacement published cleanup: %v", pub.deletes)
		}
	})
}

func TestReplaceAttachmentsWithNothingToCleanUp(t *testing.T) {
	t.Parallel()

	_, pub, svc := newAdminFixture(model.EventScheduled)
	in := ReplaceAttachmentsInput{ImageURLs: []string{"https://cdn.example.com/first.jpg"}}
	if err := svc.ReplaceAttachments(context.Background(), 1, 10, in); err != nil {
		t.Fatalf("ReplaceAttachments: %v", err)
	}
	if len(pub.deletes) != 0 {
		t.Fatalf("first upload published cleanup for %v", pub.deletes)
	}
}
