package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

func TestGetEvent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/events/1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":1,"owner_id":10,"status":"SCHEDULED","max_participants":50}`))
		case "/v1/events/2":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewHTTPEventClient(srv.URL, time.Second)

	t.Run("summary decodes", func(t *testing.T) {
		summary, err := c.GetEvent(context.Background(), 1)
		if err != nil {
			t.Fatalf("GetEvent: %v", err)
		}
		want := model.EventSummary{ID: 1, OwnerID: 10, Status: "SCHEDULED", MaxParticipants: 50}
		if *summary != want {
			t.Fatalf("summary = %+v, want %+v", *summary, want)
		}
	})
	t.Run("missing event", func(t *testing.T) {
		if _, err := c.GetEvent(context.Background(), 2); !errors.Is(err, repository.ErrEventNotFound) {
			t.Fatalf("err = %v, want ErrEventNotFound", err)
		}
	})
	t.Run("upstream 5xx", func(t *testing.T) {
		if _, err := c.GetEvent(context.Background(), 3); !errors.Is(err, repository.ErrUpstreamUnavailable) {
			t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
		}
	})
}

func TestGetEventConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	srv.Close() // nothing is listening anymore

	c := NewHTTPEventClient(srv.URL, time.Second)
	if _, err := c.GetEvent(context.Background(), 1); !errors.Is(err, repository.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}
