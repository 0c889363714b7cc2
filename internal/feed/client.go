package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	logx "buswatch/pkg/logx"

	"buswatch/internal/watch"
)

// Config configures the upstream poll.
//
// The endpoint serves ad-hoc JSON in one of several known shapes
// (see normalize.go); Username/Password enable HTTP basic auth when set.
type Config struct {
	Endpoint string
	Username string
	Password string
	Timeout  time.Duration // per-fetch deadline; 0 means default
}

const (
	defaultTimeout = 10 * time.Second
	minTimeout     = 3 * time.Second

	// maxBody caps the response read. The feed is a few KB of vehicle
	// positions; anything this large is broken upstream.
	maxBody = 4 << 20
)

type Client struct {
	mu   sync.RWMutex
	cfg  Config
	http *http.Client
	log  logx.Logger
}

func NewClient(cfg Config, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{cfg: cfg, http: &http.Client{}, log: log}
}

// Apply swaps the poll configuration at runtime (config hot reload).
func (c *Client) Apply(cfg Config) {
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

// Fetch retrieves and normalizes the current snapshot.
//
// A non-2xx status or a timeout is an error and aborts the cycle. A 2xx
// body that is not valid JSON is not: it simply yields zero vehicles.
func (c *Client) Fetch(ctx context.Context) ([]watch.Vehicle, error) {
	c.mu.RLock()
	cfg := c.cfg
	c.mu.RUnlock()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if timeout < minTimeout {
		timeout = minTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cfg.Username != "" || cfg.Password != "" {
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("feed read: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("feed: %s", upstreamError(resp.StatusCode, body))
	}

	items := Normalize(body)
	c.log.Debug("feed fetched",
		logx.Int("status", resp.StatusCode),
		logx.Int("bytes", len(body)),
		logx.Int("vehicles", len(items)),
		logx.Duration("took", time.Since(start)),
	)
	return items, nil
}

// upstreamError prefers the endpoint's own message/error field when the
// failure body is JSON, falling back to the bare HTTP status.
func upstreamError(status int, body []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &m); err == nil {
		if s := strings.TrimSpace(m.Message); s != "" {
			return s
		}
		if s := strings.TrimSpace(m.Error); s != "" {
			return s
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}
