package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

// fakeTicketStore holds a single ticket and applies transitions with the
// same compare-and-swap semantics as the SQL repository.  beforeCAS, when
// set, runs before each Transition and can simulate a concurrent scanner.
type fakeTicketStore struct {
	ticket      repository.TicketRecord
	participant repository.ParticipantRecord
	beforeCAS   func(f *fakeTicketStore)
}

func (f *fakeTicketStore) GetByCode(_ context.Context, code string) (*repository.TicketRecord, *repository.ParticipantRecord, error) {
	if code != f.ticket.QRCode {
		return nil, nil, repository.ErrTicketNotFound
	}
	t, p := f.ticket, f.participant
	return &t, &p, nil
}

func (f *fakeTicketStore) GetByID(_ context.Context, id uint64) (*repository.TicketRecord, *repository.ParticipantRecord, error) {
	if id != f.ticket.ID {
		return nil, nil, repository.ErrTicketNotFound
	}
	t, p := f.ticket, f.participant
	return &t, &p, nil
}

func (f *fakeTicketStore) Transition(_ context.Context, ticketID, _ uint64, from, to string, at time.Time) (bool, error) {
	if f.beforeCAS != nil {
		f.beforeCAS(f)
	}
	if ticketID != f.ticket.ID || f.ticket.Status != from {
		return false, nil
	}
	// DATETIME columns keep whole seconds; store what MySQL would.
	at = at.Truncate(time.Second)
	f.ticket.Status = to
	switch to {
	case model.TicketCheckedIn:
		f.participant.CheckedInAt = &at
	case model.TicketCheckedOut:
		f.participant.CheckedOutAt = &at
		f.ticket.UsedAt = &at
	}
	return true, nil
}

func (f *fakeTicketStore) Cancel(_ context.Context, ticketID uint64) (bool, error) {
	if ticketID != f.ticket.ID {
		return false, repository.ErrTicketNotFound
	}
	if model.TicketFinalized(f.ticket.Status) {
		return false, nil
	}
	f.ticket.Status = model.TicketCanceled
	return true, nil
}

type fakeInvalidator struct {
	events []uint64
}

func (f *fakeInvalidator) Invalidate(_ context.Context, eventID uint64) {
	f.events = append(f.events, eventID)
}

func newScanFixture(t *testing.T) (*fakeTicketStore, *fakeInvalidator, *ScanService) {
	t.Helper()
	code, err := utils.NewQRCode("scan-secret", 500, 42)
	if err != nil {
		t.Fatalf("NewQRCode: %v", err)
	}
	store := &fakeTicketStore{
		ticket:      repository.TicketRecord{ID: 500, ParticipantID: 42, QRCode: code, Status: model.TicketActive},
		participant: repository.ParticipantRecord{ID: 42, EventID: 9, UserID: 7},
	}
	inv := &fakeInvalidator{}
	svc := NewScanService(store, inv, "scan-secret")
	return store, inv, svc
}

func TestScanTicketSequence(t *testing.T) {
	t.Parallel()

	store, inv, svc := newScanFixture(t)
	clock := time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	code := store.ticket.QRCode

	// First scan checks in.
	res, err := svc.ScanTicket(context.Background(), code)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if res.Ticket.Status != model.TicketCheckedIn || res.Finalized {
		t.Fatalf("first scan: status=%q finalized=%v", res.Ticket.Status, res.Finalized)
	}
	if res.Participant.CheckedInAt == nil || !res.Participant.CheckedInAt.Equal(clock) {
		t.Fatalf("check-in not stamped at %v", clock)
	}

	// Second scan in the same second checks out; the stamp advances so
	// check-out stays strictly after check-in.
	res, err = svc.ScanTicket(context.Background(), code)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if res.Ticket.Status != model.TicketCheckedOut || res.Finalized {
		t.Fatalf("second scan: status=%q finalized=%v", res.Ticket.Status, res.Finalized)
	}
	in, out := res.Participant.CheckedInAt, res.Participant.CheckedOutAt
	if out == nil || !out.After(*in) {
		t.Fatalf("check-out %v not strictly after check-in %v", out, in)
	}
	if want := in.Add(time.Second); !out.Equal(want) {
		t.Fatalf("check-out = %v, want %v", out, want)
	}

	// Third scan finds a terminal ticket and changes nothing.
	res, err = svc.ScanTicket(context.Background(), code)
	if err != nil {
		t.Fatalf("third scan: %v", err)
	}
	if !res.Finalized || res.Ticket.Status != model.TicketCheckedOut {
		t.Fatalf("third scan: status=%q finalized=%v", res.Ticket.Status, res.Finalized)
	}

	// Only the two state changes invalidated the roster cache.
	if len(inv.events) != 2 || inv.events[0] != 9 || inv.events[1] != 9 {
		t.Fatalf("invalidations = %v, want [9 9]", inv.events)
	}
}

func TestScanTicketSubsecondCheckoutStaysAfterCheckin(t *testing.T) {
	t.Parallel()

	store, _, svc := newScanFixture(t)
	clock := time.Date(2026, 8, 29, 18, 0, 0, int(200*time.Millisecond), time.UTC)
	svc.now = func() time.Time { return clock }
	code := store.ticket.QRCode

	if _, err := svc.ScanTicket(context.Background(), code); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	// The wall clock moved within the same second.  Both stamps land in
	// second-resolution columns, so without the adjustment they would
	// persist as equal values.
	clock = clock.Add(600 * time.Millisecond)
	res, err := svc.ScanTicket(context.Background(), code)
	if err != nil {
		t.Fatalf("check-out: %v", err)
	}
	in, out := res.Participant.CheckedInAt, res.Participant.CheckedOutAt
	if in.Nanosecond() != 0 || out.Nanosecond() != 0 {
		t.Fatalf("stamps not at second resolution: in=%v out=%v", in, out)
	}
	if !out.After(*in) {
		t.Fatalf("stored check-out %v not strictly after stored check-in %v", out, in)
	}
	if want := in.Add(time.Second); !out.Equal(want) {
		t.Fatalf("check-out = %v, want %v", out, want)
	}
}

func TestScanTicketLaterCheckoutKeepsRealClock(t *testing.T) {
	t.Parallel()

	store, _, svc := newScanFixture(t)
	clock := time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	code := store.ticket.QRCode

	if _, err := svc.ScanTicket(context.Background(), code); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	clock = clock.Add(45 * time.Minute)
	res, err := svc.ScanTicket(context.Background(), code)
	if err != nil {
		t.Fatalf("check-out: %v", err)
	}
	if !res.Participant.CheckedOutAt.Equal(clock) {
		t.Fatalf("check-out = %v, want the wall clock %v", res.Participant.CheckedOutAt, clock)
	}
}

func TestScanTicketRejectsBadCodes(t *testing.T) {
	t.Parallel()

	store, inv, svc := newScanFixture(t)

	t.Run("unknown code", func(t *testing.T) {
		other, _ := utils.NewQRCode("scan-secret", 501, 43)
		if _, err := svc.ScanTicket(context.Background(), other); !errors.Is(err, repository.ErrTicketNotFound) {
			t.Fatalf("err = %v, want ErrTicketNotFound", err)
		}
	})
	t.Run("malformed code", func(t *testing.T) {
		if _, err := svc.ScanTicket(context.Background(), "garbage"); !errors.Is(err, repository.ErrTokenInvalid) {
			t.Fatalf("err = %v, want ErrTokenInvalid", err)
		}
	})
	t.Run("forged signature", func(t *testing.T) {
		forged, _ := utils.NewQRCode("wrong-secret", 500, 42)
		store.ticket.QRCode = forged // attacker-controlled code resolving to a real ticket
		if _, err := svc.ScanTicket(context.Background(), forged); !errors.Is(err, repository.ErrTokenInvalid) {
			t.Fatalf("err = %v, want ErrTokenInvalid", err)
		}
		if store.ticket.Status != model.TicketActive {
			t.Fatalf("forged scan moved the ticket to %q", store.ticket.Status)
		}
	})

	if len(inv.events) != 0 {
		t.Fatalf("rejected scans invalidated the cache: %v", inv.events)
	}
}

func TestScanTicketRetriesAfterLostRace(t *testing.T) {
	t.Parallel()

	store, _, svc := newScanFixture(t)
	code := store.ticket.QRCode

	// The first CAS loses to a concurrent scanner that checked the ticket
	// in; the retry must observe the fresh state and check out instead.
	raced := false
	store.beforeCAS = func(f *fakeTicketStore) {
		if !raced {
			raced = true
			now := time.Now().UTC()
			f.ticket.Status = model.TicketCheckedIn
			f.participant.CheckedInAt = &now
		}
	}

	res, err := svc.ScanTicket(context.Background(), code)
	if err != nil {
		t.Fatalf("ScanTicket: %v", err)
	}
	if res.Ticket.Status != model.TicketCheckedOut {
		t.Fatalf("status = %q, want CHECKED_OUT after retry", res.Ticket.Status)
	}
}

func TestCancelTicket(t *testing.T) {
	t.Parallel()

	store, inv, svc := newScanFixture(t)

	if err := svc.CancelTicket(context.Background(), 500); err != nil {
		t.Fatalf("CancelTicket: %v", err)
	}
	if store.ticket.Status != model.TicketCanceled {
		t.Fatalf("status = %q, want CANCELED", store.ticket.Status)
	}
	if len(inv.events) != 1 {
		t.Fatalf("invalidations = %v, want one", inv.events)
	}

	// Second cancel is a no-op and does not invalidate again.
	if err := svc.CancelTicket(context.Background(), 500); err != nil {
		t.Fatalf("repeat CancelTicket: %v", err)
	}
	if len(inv.events) != 1 {
		t.Fatalf("no-op cancel invalidated the cache: %v", inv.events)
	}

	if err := svc.CancelTicket(context.Background(), 9999); !errors.Is(err, repository.ErrTicketNotFound) {
		t.Fatalf("err = %v, want ErrTicketNotFound", err)
	}
}
