package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/protocol"
)

const healthPollInterval = 100 * time.Millisecond

// HealthURL derives the /health endpoint from a client's WebSocket URL,
// e.g. ws://localhost:8080/ws becomes http://localhost:8080/health.
func HealthURL(wsURL string) (string, error) {
	raw := wsURL
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", wsURL, err)
	}
	switch u.Scheme {
	case "ws", "http":
		u.Scheme = "http"
	case "wss", "https":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("invalid server URL %q: unsupported scheme %q", wsURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: missing host", wsURL)
	}
	u.Path, u.RawQuery, u.Fragment = "/health", "", ""
	return u.String(), nil
}

// WaitForHealthy polls healthURL until the server reports status OK or ctx
// is done. The first check runs immediately.
func WaitForHealthy(ctx context.Context, clock quartz.Clock, healthURL string) error {
	client := &http.Client{Timeout: time.Second}

	ticker := clock.NewTicker(healthPollInterval, "health", "poll")
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = checkHealth(ctx, client, healthURL); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server at %s not healthy: %w (last error: %v)", healthURL, ctx.Err(), lastErr)
		case <-ticker.C:
		}
	}
}

func checkHealth(ctx context.Context, client *http.Client, healthURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	var health protocol.Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decoding health: %w", err)
	}
	if health.Status != "OK" {
		return fmt.Errorf("status %q", health.Status)
	}
	return nil
}
