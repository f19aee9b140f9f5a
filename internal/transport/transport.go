// Package transport provides http.RoundTripper wrappers for provider traffic.
package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// ResponseObserver is told about every round trip. status is 0 if the request failed without a response.
type ResponseObserver func(method string, status int, duration time.Duration)

// InstrumentedTransport records the status and latency of every provider request. It never retries: a rate
// limited response is logged with its retry-after hint and passed through to the caller.
//
// Request headers carry the caller's credential and are never logged.
type InstrumentedTransport struct {
	base    http.RoundTripper
	observe ResponseObserver
	logger  zerolog.Logger
}

func WithInstrumentation(base http.RoundTripper, observe ResponseObserver, logger zerolog.Logger) *InstrumentedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if observe == nil {
		observe = func(string, int, time.Duration) {}
	}
	return &InstrumentedTransport{base: base, observe: observe, logger: logger}
}

func (t *InstrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		t.observe(req.Method, 0, duration)
		t.logger.Debug().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("Provider request failed")
		return resp, err
	}

	t.observe(req.Method, resp.StatusCode, duration)
	event := t.logger.Debug()
	if resp.StatusCode == http.StatusTooManyRequests {
		event = t.logger.Warn()
		if wait := retryAfter(resp); wait > 0 {
			event = event.Dur("retry_after", wait)
		}
	}
	event.Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("Provider request")

	return resp, nil
}

// retryAfter parses the retry-after header as either seconds or an HTTP date
func retryAfter(resp *http.Response) time.Duration {
	retryAfterStr := resp.Header.Get("retry-after")
	if retryAfterStr == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(retryAfterStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if retryTime, err := time.Parse(time.RFC1123, retryAfterStr); err == nil {
		return time.Until(retryTime)
	}
	return 0
}
