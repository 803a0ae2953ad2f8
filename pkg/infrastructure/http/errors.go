// Package httputil provides HTTP error handling utilities.
package httputil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// MaxErrorBodySize caps how much of a provider error body is carried into
// error messages and logs.
const MaxErrorBodySize = 500

// HTTPError represents a non-2xx provider response with enough context to
// classify it (status), debug it (truncated body, URL) and pace a retry
// (RetryAfter, when the server sent one).
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	URL        string
	RetryAfter time.Duration // zero when the response carried no Retry-After
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Status, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s (status %d)", e.Status, e.StatusCode)
}

// Transient reports whether the failure is worth retrying: server faults
// and throttling, but never client errors.
func (e *HTTPError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// parseRetryAfter handles the delta-seconds form of the Retry-After header.
// The HTTP-date form is rare enough among the APIs we call to ignore.
func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// ParseErrorResponse returns a *HTTPError for 4xx/5xx responses and nil
// otherwise. The body is read and re-wrapped so the caller can still
// consume it.
func ParseErrorResponse(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	bodyStr := ""
	if err == nil && len(bodyBytes) > 0 {
		bodyStr = truncate(string(bodyBytes), MaxErrorBodySize)
	}

	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Body:       bodyStr,
		URL:        url,
		RetryAfter: parseRetryAfter(resp.Header),
	}
}
