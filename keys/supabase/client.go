// Package supabase implements the key store over the Supabase PostgREST
// API. Every request carries the anon key both as the apikey header and
// as a bearer token; that is how Supabase expects service-level access.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/keybot/core/logger"
	"github.com/m3rciful/keybot/keys"
	"log/slog"
)

const (
	defaultTable          = "one_time_keys"
	defaultRequestTimeout = 10 * time.Second
)

// Config carries the settings required to reach the REST endpoint.
type Config struct {
	// URL is the project base URL, e.g. https://xyz.supabase.co.
	URL string
	// AnonKey is sent as both the apikey header and the bearer token.
	AnonKey string
	// Table defaults to one_time_keys.
	Table string
}

// Client talks to a single PostgREST table. Safe for concurrent use.
type Client struct {
	baseURL string
	anonKey string
	table   string
	http    *http.Client
}

var _ keys.Store = (*Client)(nil)

// New validates the configuration and returns a ready client.
// Store calls are bounded by a 10s client timeout; remote hangs must not
// pin an update handler forever.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("supabase: url is required")
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, fmt.Errorf("supabase: anon key is required")
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		table = defaultTable
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		anonKey: cfg.AnonKey,
		table:   table,
		http: &http.Client{
			Timeout: defaultRequestTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				ForceAttemptHTTP2:   true,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}, nil
}

func (c *Client) tableURL() string {
	return c.baseURL + "/rest/v1/" + c.table
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
}

// Insert appends a new unused key record bound to the user.
func (c *Client) Insert(ctx context.Context, key, userID string) error {
	body, err := json.Marshal(keys.OneTimeKey{Key: key, Used: false, UserID: userID})
	if err != nil {
		return fmt.Errorf("supabase: encode insert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("supabase: build insert request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: insert: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("supabase: insert status %s", resp.Status)
	}

	logger.STORE.Debug("key inserted",
		slog.String("event", "store.insert"),
		slog.String("status", "ok"),
		slog.String("table", c.table),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// HasActiveKey reports whether the user holds at least one unused key.
func (c *Client) HasActiveKey(ctx context.Context, userID string) (bool, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("used", "eq.false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL()+"?"+q.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("supabase: build query request: %w", err)
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("supabase: query: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("supabase: query status %s", resp.Status)
	}

	var rows []keys.OneTimeKey
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return false, fmt.Errorf("supabase: decode query: %w", err)
	}

	logger.STORE.Debug("active key lookup",
		slog.String("event", "store.query"),
		slog.String("status", "ok"),
		slog.String("table", c.table),
		slog.Int("count", len(rows)),
		slog.Duration("duration", logger.Took(start)),
	)
	return len(rows) > 0, nil
}

// Count returns the number of key records using PostgREST exact counting.
// The Range header keeps the body to a single row; the total arrives in
// the Content-Range header as "<from>-<to>/<total>".
func (c *Client) Count(ctx context.Context, unusedOnly bool) (int, error) {
	q := url.Values{}
	q.Set("select", "key")
	if unusedOnly {
		q.Set("used", "eq.false")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL()+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("supabase: build count request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Prefer", "count=exact")
	req.Header.Set("Range-Unit", "items")
	req.Header.Set("Range", "0-0")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("supabase: count: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return 0, fmt.Errorf("supabase: count status %s", resp.Status)
	}

	total, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return 0, fmt.Errorf("supabase: count: %w", err)
	}
	return total, nil
}

func parseContentRange(header string) (int, error) {
	_, totalPart, found := strings.Cut(header, "/")
	if !found {
		return 0, fmt.Errorf("malformed Content-Range %q", header)
	}
	if totalPart == "*" {
		return 0, fmt.Errorf("no exact count in Content-Range %q", header)
	}
	total, err := strconv.Atoi(totalPart)
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range %q", header)
	}
	return total, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
