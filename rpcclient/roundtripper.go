package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"chain-indexer/errs"

	"golang.org/x/time/rate"
)

const burstMultiplier = 2

func defaultRandFloat() float64 {
	return rand.Float64()
}

// newRetryingHTTPClient builds an *http.Client whose RoundTripper
// applies the configured token bucket and retry policy ahead of every
// outbound request, so the CometBFT JSON-RPC client above it never has
// to know about rate limiting or retries.
func newRetryingHTTPClient(opts Options) *http.Client {
	capacity := opts.Rps * burstMultiplier
	limiter := rate.NewLimiter(rate.Limit(opts.Rps), int(capacity+0.999999))
	return &http.Client{
		Transport: &retryingTransport{
			base:           http.DefaultTransport,
			limiter:        limiter,
			retries:        opts.Retries,
			backoffMs:      opts.BackoffMs,
			jitter:         opts.BackoffJitter,
			attemptTimeout: time.Duration(opts.TimeoutMs) * time.Millisecond,
		},
	}
}

type retryingTransport struct {
	base           http.RoundTripper
	limiter        *rate.Limiter
	retries        int
	backoffMs      int
	jitter         float64
	attemptTimeout time.Duration
}

func (t *retryingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("accept", "application/json")
	req.Header.Set("accept-encoding", "gzip, br")
	req.Header.Set("connection", "keep-alive")

	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
		resp, err := t.attempt(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
		if attempt == t.retries {
			break
		}
		logRetry(attempt+1, t.retries, err)
		sleep := backoffDuration(t.backoffMs, attempt, t.jitter)
		timer := time.NewTimer(sleep)
		select {
		case <-timer.C:
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		}
	}
	return nil, errs.ErrTransport.Wrap(lastErr.Error())
}

func (t *retryingTransport) attempt(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), t.attemptTimeout)
	defer cancel()
	attemptReq := req.Clone(ctx)

	resp, err := t.base.RoundTrip(attemptReq)
	if err != nil {
		return nil, classifyTransportErr(err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, classifyTransportErr(err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, retryableStatusErr{code: resp.StatusCode, body: string(body)}
	}
	if resp.StatusCode >= 400 {
		return nil, errs.ErrRPC.Wrapf("http %d: %s", resp.StatusCode, string(body))
	}
	if !json.Valid(body) {
		return nil, errs.ErrRPC.Wrapf("http %d: response body is not valid JSON", resp.StatusCode)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// retryableStatusErr marks a response whose status code (5xx, 429) is
// retryable.
type retryableStatusErr struct {
	code int
	body string
}

func (e retryableStatusErr) Error() string {
	return fmt.Sprintf("http %d: %s", e.code, e.body)
}

// classifyTransportErr wraps a low-level transport error (connection
// refused, timeout, EOF) as retryable; anything reaching this point
// never produced an HTTP response to classify by status code.
func classifyTransportErr(err error) error {
	return retryableNetErr{cause: err}
}

type retryableNetErr struct{ cause error }

func (e retryableNetErr) Error() string { return e.cause.Error() }
func (e retryableNetErr) Unwrap() error { return e.cause }

func isRetryable(err error) bool {
	switch err.(type) {
	case retryableStatusErr, retryableNetErr:
		return true
	default:
		return false
	}
}
