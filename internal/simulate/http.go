package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/internal/domain/types"
	"github.com/okian/spraycam/pkg/logger"
)

// HTTPClient wraps http.Client with a base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// getJSON performs a GET request and decodes a 200 response into v.
func (c *HTTPClient) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnexpectedReply, path, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// status fetches /status.
func (c *HTTPClient) status(ctx context.Context) (types.Status, error) {
	var st types.Status
	err := c.getJSON(ctx, "/status", &st)
	return st, err
}

// events fetches up to limit recorded events from /events.
func (c *HTTPClient) events(ctx context.Context, limit int) ([]types.EventEntry, error) {
	var out []types.EventEntry
	err := c.getJSON(ctx, fmt.Sprintf("/events?limit=%d", limit), &out)
	return out, err
}

// today fetches the current day's count from /events/daily.
func (c *HTTPClient) today(ctx context.Context) (int, error) {
	var out []types.DailyEntry
	if err := c.getJSON(ctx, "/events/daily?days=1", &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[len(out)-1].Count, nil
}

// toRecords converts /events entries back into event records.
func toRecords(entries []types.EventEntry) ([]model.EventRecord, error) {
	out := make([]model.EventRecord, 0, len(entries))
	for _, e := range entries {
		started, err := time.Parse(time.RFC3339Nano, e.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("event %s: bad started_at: %w", e.EventID, err)
		}
		out = append(out, model.EventRecord{
			EventID:      e.EventID,
			StartedAt:    started,
			Rate:         e.Rate,
			CaptureDelay: e.CaptureDelay,
		})
	}
	return out, nil
}
