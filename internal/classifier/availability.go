package classifier

import (
	"context"
	"net/http"
	"strings"
)

// EnsureAvailable reports whether the remote service was reachable at last
// check, probing at most once per process lifetime. The cached value never
// expires on its own; only ForceCheck refreshes it. Probe failures are
// reported as "unreachable", never as an error.
func (c *Client) EnsureAvailable(ctx context.Context) bool {
	if cached, found := c.cache.Get(availabilityKey); found {
		return cached.(bool)
	}
	return c.ForceCheck(ctx)
}

// ForceCheck performs one health probe and replaces the cached outcome.
func (c *Client) ForceCheck(ctx context.Context) bool {
	available := c.probe(ctx)
	c.cache.Set(availabilityKey, available, 0)
	c.logger.Info("Remote service health probe", "available", available)
	return available
}

func (c *Client) probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	healthURL := strings.TrimSuffix(c.settings.Recognition.Endpoint, "/") + c.settings.Recognition.HealthPath
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, healthURL, http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Health probe failed", "url", healthURL, "error", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
