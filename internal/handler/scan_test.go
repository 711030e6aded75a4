package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/service"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

// memTicketStore backs the scan handler tests with one in-memory ticket.
type memTicketStore struct {
	ticket      repository.TicketRecord
	participant repository.ParticipantRecord
}

func (m *memTicketStore) GetByCode(_ context.Context, code string) (*repository.TicketRecord, *repository.ParticipantRecord, error) {
	if code != m.ticket.QRCode {
		return nil, nil, repository.ErrTicketNotFound
	}
	t, p := m.ticket, m.participant
	return &t, &p, nil
}

func (m *memTicketStore) GetByID(_ context.Context, id uint64) (*repository.TicketRecord, *repository.ParticipantRecord, error) {
	if id != m.ticket.ID {
		return nil, nil, repository.ErrTicketNotFound
	}
	t, p := m.ticket, m.participant
	return &t, &p, nil
}

func (m *memTicketStore) Transition(_ context.Context, ticketID, _ uint64, from, to string, at time.Time) (bool, error) {
	if ticketID != m.ticket.ID || m.ticket.Status != from {
		return false, nil
	}
	m.ticket.Status = to
	if to == model.TicketCheckedIn {
		m.participant.CheckedInAt = &at
	}
	return true, nil
}

func (m *memTicketStore) Cancel(_ context.Context, ticketID uint64) (bool, error) {
	if ticketID != m.ticket.ID {
		return false, repository.ErrTicketNotFound
	}
	if model.TicketFinalized(m.ticket.Status) {
		return false, nil
	}
	m.ticket.Status = model.TicketCanceled
	return true, nil
}

func scanRequestRecorder(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/tickets/scan", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestScanEndpoint(t *testing.T) {
	t.Parallel()

	code, err := utils.NewQRCode("scan-secret", 500, 42)
	if err != nil {
		t.Fatalf("NewQRCode: %v", err)
	}
	store := &memTicketStore{
		ticket:      repository.TicketRecord{ID: 500, ParticipantID: 42, QRCode: code, Status: model.TicketActive},
		participant: repository.ParticipantRecord{ID: 42, EventID: 9},
	}
	h := NewScanHandler(service.NewScanService(store, nil, "scan-secret"))

	t.Run("check-in", func(t *testing.T) {
		c, rec := scanRequestRecorder(t, `{"code":`+jsonString(code)+`}`)
		if err := h.Scan(c); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		var resp struct {
			Ticket struct {
				Status string `json:"status"`
			} `json:"ticket"`
			Finalized bool `json:"finalized"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Ticket.Status != model.TicketCheckedIn || resp.Finalized {
			t.Fatalf("response %+v", resp)
		}
	})
	t.Run("unknown ticket maps to 404", func(t *testing.T) {
		other, _ := utils.NewQRCode("scan-secret", 501, 43)
		c, rec := scanRequestRecorder(t, `{"code":`+jsonString(other)+`}`)
		if err := h.Scan(c); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"code":"ticket_not_found"`) {
			t.Fatalf("body %s missing machine code", rec.Body)
		}
	})
	t.Run("missing code maps to 400", func(t *testing.T) {
		c, rec := scanRequestRecorder(t, `{}`)
		if err := h.Scan(c); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
