package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/authapi"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/google/uuid"
)

const maxResponseBytes = 1 << 20

type HTTPClient struct {
	baseURL string
	http    *http.Client
	health  HealthChecker
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client (tests use this to
// point at an httptest server's client).
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

// WithHealthChecker makes Ping use hc instead of GET /health.
func WithHealthChecker(hc HealthChecker) Option {
	return func(h *HTTPClient) { h.health = hc }
}

// NewHTTPClient builds a client for the Auth API at baseURL
// (e.g. "http://127.0.0.1:8080"). timeout bounds every request end to end.
func NewHTTPClient(baseURL string, timeout time.Duration, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.authenticate(ctx, common.LoginPath, email, password)
}

func (c *HTTPClient) CreateAccount(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.authenticate(ctx, common.CreateAccountPath, email, password)
}

func (c *HTTPClient) authenticate(ctx context.Context, path, email, password string) (*AuthResult, error) {
	var resp authapi.AuthResponse
	req := authapi.CredentialsRequest{Email: email, Password: password}

	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedResponse)
	}

	return &AuthResult{Token: resp.Token, User: models.User{Email: resp.User.Email}}, nil
}

func (c *HTTPClient) CheckAuth(ctx context.Context, token string) (*models.User, error) {
	var resp authapi.CheckAuthResponse

	if err := c.post(ctx, common.CheckAuthPath, authapi.CheckAuthRequest{Token: token}, &resp); err != nil {
		return nil, err
	}

	return &models.User{Email: resp.User.Email}, nil
}

// Ping probes the gRPC health service when one is configured and falls back
// to GET /health otherwise.
func (c *HTTPClient) Ping(ctx context.Context) error {
	if c.health != nil {
		return c.health.Check(ctx)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return statusError(resp.StatusCode, "")
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	if c.health != nil {
		return c.health.Close()
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading body: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, errorMessage(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// statusError maps an HTTP status to a sentinel error; 2xx maps to nil.
func statusError(code int, msg string) error {
	if code >= 200 && code <= 299 {
		return nil
	}

	var kind error
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		kind = ErrUnauthorized
	case code >= 500:
		kind = ErrUnavailable
	default:
		kind = ErrUnexpectedStatus
	}

	if msg == "" {
		return fmt.Errorf("%w: status %d", kind, code)
	}
	return fmt.Errorf("%w: status %d: %s", kind, code, msg)
}

func errorMessage(body []byte) string {
	var e authapi.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
