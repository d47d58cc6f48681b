package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Source     string
	StatusCode int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s returned HTTP %d (retry after %s)", e.Source, e.StatusCode, e.RetryAfter)
	}
	return fmt.Sprintf("%s returned HTTP %d", e.Source, e.StatusCode)
}

type httpJSON struct {
	Client    *http.Client
	UserAgent string
}

func (h httpJSON) getJSON(ctx context.Context, source, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", source, err)
	}
	return h.do(req, source, out)
}

func (h httpJSON) postJSON(ctx context.Context, source, rawURL string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", source, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", source, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return h.do(req, source, out)
}

func (h httpJSON) do(req *http.Request, source string, out any) error {
	req.Header.Set("Accept", "application/json")
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", source, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Source: source, StatusCode: resp.StatusCode, RetryAfter: retryAfterHeader(resp)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing %s response: %w", source, err)
	}
	return nil
}

func retryAfterHeader(resp *http.Response) time.Duration {
	if resp == nil || resp.Header == nil {
		return 0
	}

	retry := resp.Header.Get("Retry-After")
	if retry == "" {
		return 0
	}
	if seconds, err := time.ParseDuration(retry + "s"); err == nil {
		return seconds
	}
	if parsed, err := http.ParseTime(retry); err == nil {
		return time.Until(parsed)
	}
	return 0
}

func clampLimit(limit, ceiling int) int {
	if limit <= 0 {
		return 20
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
