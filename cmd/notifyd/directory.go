package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrymomot/eventkit/pkg/dispatch"
	"github.com/dmitrymomot/eventkit/pkg/reservation"
	"github.com/dmitrymomot/eventkit/pkg/sweep"
)

// directoryClient resolves attendees and upcoming events from the ticketing
// directory service. It backs both sweep collaborator interfaces.
type directoryClient struct {
	baseURL string
	client  *http.Client
}

func newDirectoryClient(baseURL string) *directoryClient {
	return &directoryClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type recipientResponse struct {
	Recipient dispatch.Recipient `json:"recipient"`
	EventName string             `json:"event_name"`
}

func (c *directoryClient) Resolve(ctx context.Context, res reservation.Reservation) (dispatch.Recipient, string, error) {
	var out recipientResponse
	path := fmt.Sprintf("/reservations/%s/recipient", res.ID)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return dispatch.Recipient{}, "", err
	}
	return out.Recipient, out.EventName, nil
}

type upcomingEventsResponse struct {
	Events []sweep.UpcomingEvent `json:"events"`
}

func (c *directoryClient) StartingBetween(ctx context.Context, from, to time.Time) ([]sweep.UpcomingEvent, error) {
	var out upcomingEventsResponse
	path := fmt.Sprintf("/events/upcoming?from=%s&to=%s",
		url.QueryEscape(from.Format(time.RFC3339)), url.QueryEscape(to.Format(time.RFC3339)))
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (c *directoryClient) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build directory request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("directory responded %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode directory response: %w", err)
	}
	return nil
}
