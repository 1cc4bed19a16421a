package delhivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 2 * time.Second
)

var errNotConfigured = fmt.Errorf("delhivery is not configured")

// do issues one carrier API call with bounded retries. 5xx responses and
// network errors are retried with a fixed delay; 4xx responses fail fast
// with whatever message the body carries.
func (c *Client) do(ctx context.Context, method, url string, body []byte, contentType string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Token "+c.apiKey)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		} else {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.log.Warn("carrier request failed",
				zap.String("url", url), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}

		lastErr = fmt.Errorf("carrier returned HTTP %d: %s", resp.StatusCode, errorMessage(data))
		if resp.StatusCode >= 500 {
			c.log.Warn("carrier 5xx, retrying",
				zap.String("url", url), zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt))
			continue
		}
		return nil, lastErr
	}
	return nil, lastErr
}

// errorMessage digs a usable message out of an error body, which may be a
// JSON object, a bare string, or arbitrary text.
func errorMessage(body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, k := range []string{"message", "error", "rmk", "remarks"} {
			if v, ok := obj[k].(string); ok && v != "" {
				return v
			}
		}
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil && s != "" {
		return s
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
