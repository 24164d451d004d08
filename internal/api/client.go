package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/wouldwatch/internal/shared"
)

const defaultBaseURL = "http://localhost:8080"

// TokenSource supplies the access token for each request.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// RequestFailed is returned for any non-2xx response.
//
// Body is the raw response text; it doubles as the user-facing detail.
type RequestFailed struct {
	Status int
	Body   string
}

func (e *RequestFailed) Error() string {
	if msg := strings.TrimSpace(e.Body); msg != "" {
		return msg
	}
	return fmt.Sprintf("API request failed: %d", e.Status)
}

// Unwrap lets callers match with errors.Is(err, shared.ErrRequestFailed).
func (e *RequestFailed) Unwrap() error {
	return shared.ErrRequestFailed
}

// Client performs authenticated JSON requests against the backend.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a gateway for cfg.BaseURL. A positive cfg.RateLimit caps requests per second.
func NewClient(cfg shared.APIConfig, tokens TokenSource, httpClient *http.Client, logger *log.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	c := &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     logger,
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// BaseURL returns the backend origin requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends method to path with body encoded as JSON, decoding the response into out.
//
// body and out may be nil. The response is decoded as-is; callers treat missing lists as empty.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return err
		}
		return fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}
	if token == "" {
		return shared.ErrNotAuthenticated
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: failed to encode request: %w", shared.ErrUnexpected, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", shared.ErrUnexpected, err)
	}

	requestID := shared.GenerateID()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrUnexpected, err)
		}
	}

	logger := shared.WithLogger(c.logger, "method", method, "path", path, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("request failed", "error", err)
		return fmt.Errorf("%w: request failed: %w", shared.ErrUnexpected, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", shared.ErrUnexpected, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("request rejected", "status", resp.StatusCode)
		return &RequestFailed{Status: resp.StatusCode, Body: string(data)}
	}

	logger.Debug("request succeeded", "status", resp.StatusCode)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", shared.ErrUnexpected, err)
	}
	return nil
}

// ShareLink is the URL participants open to join a voting session.
func ShareLink(appURL, sessionID string) string {
	return strings.TrimRight(appURL, "/") + "/session/" + sessionID
}
