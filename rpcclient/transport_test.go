package rpcclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffDuration_ZeroJitterIsExponential(t *testing.T) {
	randFloat = func() float64 { return 0.5 }
	defer func() { randFloat = defaultRandFloat }()

	require.Equal(t, 250*time.Millisecond, backoffDuration(250, 0, 0))
	require.Equal(t, 500*time.Millisecond, backoffDuration(250, 1, 0))
	require.Equal(t, 1000*time.Millisecond, backoffDuration(250, 2, 0))
}

func TestBackoffDuration_JitterStaysWithinBounds(t *testing.T) {
	cases := []float64{0, 0.25, 1}
	for _, r := range cases {
		randFloat = func() float64 { return r }
		d := backoffDuration(1000, 1, 0.3)
		require.GreaterOrEqual(t, d, 1400*time.Millisecond)
		require.LessOrEqual(t, d, 2600*time.Millisecond)
	}
	randFloat = defaultRandFloat
}

func TestIsRetryable(t *testing.T) {
	require.True(t, isRetryable(retryableStatusErr{code: 429}))
	require.True(t, isRetryable(retryableStatusErr{code: 503}))
	require.True(t, isRetryable(retryableNetErr{cause: errors.New("connection reset")}))
	require.False(t, isRetryable(errNotRetryable{}))
}

type errNotRetryable struct{}

func (errNotRetryable) Error() string { return "terminal" }

func TestRetryingTransport_RetriesOn503ThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	defer srv.Close()

	client := newRetryingHTTPClient(Options{
		Rps:       1000,
		Retries:   5,
		BackoffMs: 1,
		TimeoutMs: 1000,
	})

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 3, attempts)
}

func TestRetryingTransport_TerminalOn404(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newRetryingHTTPClient(Options{
		Rps:       1000,
		Retries:   5,
		BackoffMs: 1,
		TimeoutMs: 1000,
	})

	_, err := client.Get(srv.URL)
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}
