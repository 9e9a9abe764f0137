package tripapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tripmap/internal/domain"
)

const (
	planPath   = "/api/plan-trip/"
	healthPath = "/api/health/"

	// Error bodies are only read for their message.
	maxErrorBody = 4 << 10
)

// ErrBackendStatus is wrapped by StatusError.
var ErrBackendStatus = errors.New("unexpected backend status")

type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %d: %s", ErrBackendStatus, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %d", ErrBackendStatus, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrBackendStatus
}

// Client talks to the trip-planning backend that applies HOS rules and
// produces the route, stops, schedule and log sheets.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) Plan(ctx context.Context, req domain.TripRequest) (*domain.TripPlan, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+planPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	var plan domain.TripPlan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &plan, nil
}

func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func statusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return se
	}

	var eb errorBody
	if json.Unmarshal(data, &eb) == nil {
		if eb.Error != "" {
			se.Message = eb.Error
		} else {
			se.Message = eb.Detail
		}
	}
	return se
}
