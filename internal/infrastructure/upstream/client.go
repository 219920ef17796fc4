package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"momo-storefront/internal/domain"

	"github.com/goccy/go-json"
)

const maxResponseBytes = 1 << 20

// Client calls one service of the remote storefront API.
type Client struct {
	service    string
	baseURL    string
	httpClient *http.Client
}

func NewClient(service, baseURL string, timeout time.Duration) *Client {
	return &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Service() string {
	return c.service
}

// Do sends in as a JSON body (when non-nil) and decodes a 2xx response into
// out. Non-2xx responses and transport failures come back as
// *domain.UpstreamError; StatusCode is 0 for transport failures. The caller's
// bearer token is forwarded when present in ctx.
func (c *Client) Do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", c.service, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := ctx.Value(domain.TokenContextKey).(string); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &domain.UpstreamError{Service: c.service, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &domain.UpstreamError{Service: c.service, Message: "read response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.UpstreamError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw, resp.Status),
		}
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &domain.UpstreamError{
				Service:    c.service,
				StatusCode: resp.StatusCode,
				Message:    "decode response: " + err.Error(),
			}
		}
	}
	return nil
}

// Retryable reports whether a failed call may succeed on a later attempt:
// transport failures, 5xx and 429.
func Retryable(err error) bool {
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		return false
	}
	return ue.StatusCode == 0 ||
		ue.StatusCode == http.StatusTooManyRequests ||
		ue.StatusCode >= 500
}

// errorMessage extracts {"message"} or {"error"} from an error body.
func errorMessage(raw []byte, status string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 200 {
		return text
	}
	return status
}
