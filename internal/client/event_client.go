// Package client contains the interface-typed clients the ticket service
// uses to call its upstream services.  Clients are constructed explicitly
// and passed to the services that need them; nothing here is resolved from
// ambient process state.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// HTTPEventClient reads event summaries from the event service over HTTP.
// Calls block for at most the configured timeout; on timeout or connection
// failure the dependency is treated as unavailable and the caller decides
// whether to retry with backoff.
type HTTPEventClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPEventClient returns a client for the event service at baseURL
// (scheme://host:port, no trailing slash).
func NewHTTPEventClient(baseURL string, timeout time.Duration) *HTTPEventClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPEventClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// GetEvent fetches the summary for one event.  A missing event maps to
// repository.ErrEventNotFound; transport failures and 5xx responses map to
// repository.ErrUpstreamUnavailable.
func (c *HTTPEventClient) GetEvent(ctx context.Context, eventID uint64) (*model.EventSummary, error) {
	url := fmt.Sprintf("%s/v1/events/%d", c.baseURL, eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, repository.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, repository.ErrEventNotFound
	case resp.StatusCode >= 500:
		return nil, repository.ErrUpstreamUnavailable
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("event service returned status %d", resp.StatusCode)
	}
	var summary model.EventSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decode event summary: %w", err)
	}
	return &summary, nil
}
