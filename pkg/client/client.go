// Package client is the Go client for the stockpulse API: analysis creation,
// reads, and live subscription to a run's progress stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/joonhokim/stockpulse/pkg/models"
)

// Sentinel errors mapped from envelope codes.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrValidation      = errors.New("invalid request")
	ErrNotFound        = errors.New("analysis not found")
	ErrServer          = errors.New("server error")
)

// Client talks to a stockpulse API server. The zero value is not usable;
// construct with New.
type Client struct {
	baseURL   string
	apiKey    string
	sessionID string
	httpc     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey authenticates requests with a Bearer API key.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithSessionID authenticates requests as an anonymous session.
func WithSessionID(id uuid.UUID) Option {
	return func(c *Client) { c.sessionID = id.String() }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// New creates a Client. Without WithAPIKey or WithSessionID a fresh anonymous
// session id is generated.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" && c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	return c
}

// SessionID returns the anonymous session id in use, or "" when the client
// authenticates with an API key. Reusing the id across clients keeps
// ownership of previously created analyses.
func (c *Client) SessionID() string {
	return c.sessionID
}

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CreateAnalysis submits a new analysis request and returns its id.
func (c *Client) CreateAnalysis(ctx context.Context, ticker, market string) (uuid.UUID, error) {
	body, err := json.Marshal(map[string]string{"ticker": ticker, "market": market})
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return uuid.Nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	env, err := c.do(req)
	if err != nil {
		return uuid.Nil, err
	}

	var data struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return uuid.Nil, fmt.Errorf("decoding response: %w", err)
	}
	return data.ID, nil
}

// GetAnalysis fetches an analysis by id, joined with its report when one exists.
func (c *Client) GetAnalysis(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/v1/analyses/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setAuth(req)

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var analysis models.Analysis
	if err := json.Unmarshal(env.Data, &analysis); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &analysis, nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return
	}
	req.Header.Set("X-Session-ID", c.sessionID)
}

func (c *Client) do(req *http.Request) (*apiEnvelope, error) {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	if err := codeToError(env.Code, env.Message); err != nil {
		return nil, err
	}
	return &env, nil
}

func codeToError(code int, message string) error {
	switch code {
	case 20000:
		return nil
	case 40100:
		return fmt.Errorf("%w: %s", ErrUnauthenticated, message)
	case 40201:
		return fmt.Errorf("%w: %s", ErrValidation, message)
	case 40401:
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	default:
		return fmt.Errorf("%w: %s (code %d)", ErrServer, message, code)
	}
}
