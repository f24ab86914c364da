package inventory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/alex-user-go/rateengine/internal/middleware"
)

// Cache is a get-or-compute store with per-entry TTL.
// The bool result reports whether the value came from the cache.
type Cache interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, bool, error)
}

// Credentials identify the agent against the upstream system.
type Credentials struct {
	AgentID  string
	Password string
}

// ClientConfig configures Client.
type ClientConfig struct {
	BaseURL           string
	Credentials       Credentials
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	CredentialTTL     time.Duration
}

// Client queries the upstream inventory system over HTTP.
type Client struct {
	baseURL       string
	creds         Credentials
	httpClient    *http.Client
	limiter       *rate.Limiter
	cache         Cache
	credentialTTL time.Duration
}

// NewClient creates a new Client. A nil cache disables credential caching.
func NewClient(cfg ClientConfig, cache Cache) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		creds:   cfg.Credentials,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:       rate.NewLimiter(limit, burst),
		cache:         cache,
		credentialTTL: cfg.CredentialTTL,
	}
}

type dateRangesReply struct {
	DateRanges OneOrMany[DateRange] `json:"date_ranges"`
}

type quotesReply struct {
	Quotes OneOrMany[Quote] `json:"quotes"`
}

type quoteRequest struct {
	OptionID string `json:"option_id"`
	Date     string `json:"date"`
	Units    int    `json:"units"`
	Rooms    []Room `json:"rooms"`
	Convert  string `json:"convert"`
}

type credentialReply struct {
	Valid bool `json:"valid"`
}

// Option fetches option metadata.
func (c *Client) Option(ctx context.Context, optionID string) (Option, error) {
	var opt Option
	if err := c.do(ctx, "option", http.MethodGet, "/options/"+url.PathEscape(optionID), nil, &opt); err != nil {
		return Option{}, err
	}
	return opt, nil
}

// DateRanges fetches the rate calendar for a window.
func (c *Client) DateRanges(ctx context.Context, q DateRangeQuery) ([]DateRange, error) {
	var reply dateRangesReply
	if err := c.do(ctx, "dateranges", http.MethodPost, "/dateranges", q, &reply); err != nil {
		return nil, err
	}
	if reply.DateRanges == nil {
		return []DateRange{}, nil
	}
	return reply.DateRanges, nil
}

// Quotes fetches priced stay quotes for an exact window.
func (c *Client) Quotes(ctx context.Context, q QuoteQuery) ([]Quote, error) {
	body := quoteRequest{
		OptionID: q.OptionID,
		Date:     q.Date,
		Units:    q.Units,
		Rooms:    q.Rooms,
		Convert:  convertFlag(q.DisplaySupplierCurrency),
	}
	var reply quotesReply
	if err := c.do(ctx, "quotes", http.MethodPost, "/quotes", body, &reply); err != nil {
		return nil, err
	}
	if reply.Quotes == nil {
		return []Quote{}, nil
	}
	return reply.Quotes, nil
}

// CheckCredentials validates the configured agent credentials.
// Results are cached for the configured TTL when a cache is present.
func (c *Client) CheckCredentials(ctx context.Context) error {
	check := func(ctx context.Context) ([]byte, error) {
		var reply credentialReply
		if err := c.do(ctx, "auth", http.MethodPost, "/auth/check", struct{}{}, &reply); err != nil {
			return nil, err
		}
		if !reply.Valid {
			return []byte("0"), nil
		}
		return []byte("1"), nil
	}

	var (
		value []byte
		err   error
	)
	if c.cache != nil && c.credentialTTL > 0 {
		value, _, err = c.cache.GetOrCompute(ctx, c.credentialKey(), c.credentialTTL, check)
	} else {
		value, err = check(ctx)
	}
	if err != nil {
		return err
	}
	if string(value) != "1" {
		return ErrInvalidCredentials
	}
	return nil
}

func (c *Client) credentialKey() string {
	sum := sha256.Sum256([]byte(c.creds.AgentID + "\x00" + c.creds.Password))
	return "credentials:" + hex.EncodeToString(sum[:])
}

// convertFlag maps the currency preference to the upstream conversion switch.
func convertFlag(displaySupplierCurrency bool) string {
	if displaySupplierCurrency {
		return "N"
	}
	return "Y"
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Op: op, Err: err}
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Agent-Id", c.creds.AgentID)
	req.Header.Set("X-Agent-Password", c.creds.Password)
	requestID := middleware.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &Error{Op: op, Err: err}
		}
		return &Error{Op: op, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: ErrInvalidCredentials}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected reply: %s", strings.TrimSpace(string(snippet)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}
