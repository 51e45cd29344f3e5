// Package remote is the HTTP client for the glucose backend. It is the only
// code that speaks the wire protocol; everything above it works with mapped
// local models.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Error categories carried by CallError.
const (
	CategoryValidation = "validation"
	CategoryAuth       = "auth"
	CategoryServer     = "server"
	CategoryNetwork    = "network"
)

// CallError is a per-record remote failure with enough structure for the sync
// engine to count and log it without aborting a batch.
type CallError struct {
	StatusCode int
	Category   string
	Message    string
}

func (e *CallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("remote call failed (%s, HTTP %d): %s", e.Category, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote call failed (%s): %s", e.Category, e.Message)
}

// Reading is the wire representation of a glucose reading.
type Reading struct {
	ID          string  `json:"id,omitempty"`
	ClientID    string  `json:"client_id,omitempty"`
	UserID      string  `json:"user_id,omitempty"`
	Glucose     float64 `json:"glucose"`
	Unit        string  `json:"unit,omitempty"`
	MeasuredAt  string  `json:"measured_at"`
	ReadingType string  `json:"reading_type,omitempty"`
	SubType     string  `json:"sub_type,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	MealContext string  `json:"meal_context,omitempty"`
	DeviceID    string  `json:"device_id,omitempty"`
}

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// Client is an HTTP client for the glucose backend.
type Client struct {
	BaseURL  string
	APIKey   string
	DeviceID string
	HTTP     *http.Client
}

// New creates a new backend client.
func New(baseURL, apiKey, deviceID string) *Client {
	return &Client{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		DeviceID: deviceID,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// HealthCheck hits the /healthz endpoint to verify server reachability.
func (c *Client) HealthCheck(ctx context.Context) error {
	var resp HealthResponse
	return c.do(ctx, "GET", "/healthz", nil, &resp)
}

// CreateReading creates a reading on the server and returns the stored version
// including the server-assigned id.
func (c *Client) CreateReading(ctx context.Context, r Reading) (*Reading, error) {
	var resp Reading
	if err := c.do(ctx, "POST", "/v1/readings", r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateReading replaces a reading identified by its server id.
func (c *Client) UpdateReading(ctx context.Context, r Reading) (*Reading, error) {
	var resp Reading
	if err := c.do(ctx, "PUT", "/v1/readings/"+r.ID, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteReading deletes a reading by its server id. A 404 is treated as
// success: the record is already gone remotely.
func (c *Client) DeleteReading(ctx context.Context, backendID string) error {
	err := c.do(ctx, "DELETE", "/v1/readings/"+backendID, nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// ListReadings fetches the authenticated user's full remote record set.
func (c *Client) ListReadings(ctx context.Context) ([]Reading, error) {
	var resp []Reading
	if err := c.do(ctx, "GET", "/v1/readings/mine", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if c.DeviceID != "" {
		req.Header.Set("X-Device-ID", c.DeviceID)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &CallError{Category: CategoryNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &CallError{Category: CategoryNetwork, Message: err.Error()}
	}

	if resp.StatusCode >= 400 {
		message := string(respBody)
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			message = apiErr.Message
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthorized, message)
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, message)
		case resp.StatusCode == http.StatusForbidden:
			return &CallError{StatusCode: resp.StatusCode, Category: CategoryAuth, Message: message}
		case resp.StatusCode >= 500:
			return &CallError{StatusCode: resp.StatusCode, Category: CategoryServer, Message: message}
		default:
			return &CallError{StatusCode: resp.StatusCode, Category: CategoryValidation, Message: message}
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
