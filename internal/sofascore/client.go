package sofascore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Mirror base URLs. One of them periodically answers with a
// 403-challenge page, so every path is tried against both.
var defaultBases = []string{
	"https://api.sofascore.com/api/v1",
	"https://www.sofascore.com/api/v1",
}

// Browser-like headers; without them the API serves challenge pages.
var defaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.9",
	"Origin":          "https://www.sofascore.com",
	"Referer":         "https://www.sofascore.com/",
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches tennis schedules and statistics from the SofaScore
// mirrors.
type Client struct {
	http  HTTPClient
	bases []string
}

// NewClient creates a Client on the given HTTP client.
func NewClient(client HTTPClient) *Client {
	return &Client{
		http:  client,
		bases: defaultBases,
	}
}

// scheduleResponse is the envelope of the schedule endpoints.
type scheduleResponse struct {
	Events []*Event `json:"events"`
}

// getJSON performs one GET and decodes a JSON body. Non-2xx statuses
// and non-JSON bodies (HTML challenge pages) are failures.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}

// getJSONMulti tries a path against every mirror base in order and
// returns the first successful decode.
func (c *Client) getJSONMulti(ctx context.Context, path string, out any) error {
	var lastErr error
	for _, base := range c.bases {
		if err := c.getJSON(ctx, base+path, out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// schedulePaths are the known path variants for a day's schedule,
// tried in order.
var schedulePaths = []string{
	"/sport/tennis/scheduled-events/%s",
	"/sport/tennis/events/%s",
}

// FetchSchedule returns the day's events with banned tiers already
// removed. All mirror/path combinations are tried; if they all fail,
// the live-events endpoint is the last resort. The returned error is
// distinct from an empty slice: callers that must tell "no events"
// from "fetch failed" (the notification worker) check it, menu paths
// may treat it as an empty day.
func (c *Client) FetchSchedule(ctx context.Context, day string) ([]*Event, error) {
	var lastErr error
	sawEmptyDay := false
	for _, pattern := range schedulePaths {
		var sched scheduleResponse
		if err := c.getJSONMulti(ctx, fmt.Sprintf(pattern, day), &sched); err != nil {
			lastErr = err
			continue
		}
		if events := allowedOnly(sched.Events); len(events) > 0 {
			return events, nil
		}
		sawEmptyDay = true
	}

	var live scheduleResponse
	if err := c.getJSONMulti(ctx, "/sport/tennis/events/live", &live); err != nil {
		if sawEmptyDay {
			// A schedule endpoint answered successfully with an empty
			// day; that is "no events", not a fetch failure.
			return nil, nil
		}
		if lastErr == nil {
			lastErr = err
		}
		return nil, fmt.Errorf("fetch schedule for %s: %w", day, lastErr)
	}
	return allowedOnly(live.Events), nil
}

func allowedOnly(events []*Event) []*Event {
	var out []*Event
	for _, ev := range events {
		if ev.Allowed() {
			out = append(out, ev)
		}
	}
	return out
}

// EncodeEvents serializes events for the per-day cache.
func EncodeEvents(events []*Event) ([]byte, error) {
	payload, err := json.Marshal(scheduleResponse{Events: events})
	if err != nil {
		return nil, fmt.Errorf("encode events: %w", err)
	}
	return payload, nil
}

// DecodeEvents parses a cached schedule payload.
func DecodeEvents(payload []byte) ([]*Event, error) {
	var sched scheduleResponse
	if err := json.Unmarshal(payload, &sched); err != nil {
		return nil, fmt.Errorf("decode events cache: %w", err)
	}
	return sched.Events, nil
}
