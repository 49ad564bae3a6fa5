package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/openslot/openslot/api/pkg/config"
)

//go:generate mockgen -source $GOFILE -destination calendar_mocks.go -package $GOPACKAGE

// ExternalEvent is the payload the external calendar API understands.
type ExternalEvent struct {
	Summary   string    `json:"summary"`
	StaffID   string    `json:"staff_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Client talks to the external calendar. Best-effort by contract: callers
// record failures and move on, nothing here blocks a booking.
type Client interface {
	CreateEvent(ctx context.Context, event *ExternalEvent) (externalID string, err error)
	DeleteEvent(ctx context.Context, externalID string) error
}

type HTTPClient struct {
	cfg        config.Calendar
	httpClient *retryablehttp.Client
}

func NewHTTPClient(cfg config.Calendar) *HTTPClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	client.HTTPClient.Timeout = cfg.Timeout

	return &HTTPClient{
		cfg:        cfg,
		httpClient: client,
	}
}

func (c *HTTPClient) CreateEvent(ctx context.Context, event *ExternalEvent) (string, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/events", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calendar create failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("calendar create failed with status %d", resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("calendar create returned invalid body: %w", err)
	}
	return out.ID, nil
}

func (c *HTTPClient) DeleteEvent(ctx context.Context, externalID string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/events/%s", c.cfg.BaseURL, externalID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar delete failed: %w", err)
	}
	defer resp.Body.Close()

	// Gone already is fine, the reconciler replays deletes.
	if resp.StatusCode != http.StatusNotFound && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return fmt.Errorf("calendar delete failed with status %d", resp.StatusCode)
	}
	return nil
}
