package checkout

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

const DefaultSubmitTimeout = 15 * time.Second

var (
	ErrStoreUnavailable  = errors.New("ordering service unavailable, please try again")
	ErrMalformedResponse = errors.New("unexpected response from ordering service")
)

// RejectedError is returned when the ordering API answers but does not accept the order.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("order rejected (status %d)", e.StatusCode)
	}
	return "order rejected: " + e.Message
}

type submitResponse struct {
	Success *bool  `json:"success"`
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeout: DefaultSubmitTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit performs a single POST of the order and returns the assigned ID.
// It never retries.
func (c *Client) Submit(ctx context.Context, order domain.OrderRequest) (string, error) {
	data, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("marshal order: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var out submitResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("%w: status %d", ErrStoreUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RejectedError{StatusCode: resp.StatusCode, Message: out.Message}
	}
	if decodeErr != nil || out.Success == nil {
		return "", ErrMalformedResponse
	}
	if !*out.Success {
		return "", &RejectedError{StatusCode: resp.StatusCode, Message: out.Message}
	}
	if out.OrderID == "" {
		return "", ErrMalformedResponse
	}

	return out.OrderID, nil
}
