// Package rpcclient implements a rate-limited, retrying RPC transport
// that exposes status/block/block_results over the CometBFT JSON-RPC
// client, governed by a token bucket and a jittered exponential
// backoff retry policy.
package rpcclient

import (
	"context"
	"time"

	"chain-indexer/logging"

	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
)

// Options configures the transport. Field meanings match the
// `source.*` config keys.
type Options struct {
	RpcUrl        string
	TimeoutMs     int
	Rps           float64
	Retries       int
	BackoffMs     int
	BackoffJitter float64
}

// ChainStatus mirrors status() result.
type ChainStatus struct {
	EarliestBlockHeight int64
	LatestBlockHeight   int64
}

// Transport is the sole point of contact with the RPC endpoint. It is
// safe for concurrent use by multiple goroutines.
type Transport struct {
	client *rpchttp.HTTP
}

// New builds a Transport whose underlying http.Client routes every
// request through a rate-limiting, retrying RoundTripper (roundtripper.go).
func New(opts Options) (*Transport, error) {
	httpClient := newRetryingHTTPClient(opts)
	client, err := rpchttp.NewWithClient(opts.RpcUrl, "/websocket", httpClient)
	if err != nil {
		return nil, err
	}
	return &Transport{client: client}, nil
}

func (t *Transport) Status(ctx context.Context) (ChainStatus, error) {
	res, err := t.client.Status(ctx)
	if err != nil {
		return ChainStatus{}, err
	}
	return ChainStatus{
		EarliestBlockHeight: res.SyncInfo.EarliestBlockHeight,
		LatestBlockHeight:   res.SyncInfo.LatestBlockHeight,
	}, nil
}

func (t *Transport) Block(ctx context.Context, height int64) (*coretypes.ResultBlock, error) {
	return t.client.Block(ctx, &height)
}

func (t *Transport) BlockResults(ctx context.Context, height int64) (*coretypes.ResultBlockResults, error) {
	return t.client.BlockResults(ctx, &height)
}

func backoffDuration(backoffMs int, attempt int, jitter float64) time.Duration {
	base := float64(backoffMs) * pow2(attempt)
	if jitter > 0 {
		delta := base * jitter
		base = base - delta + 2*delta*randFloat()
	}
	if base < 0 {
		base = 0
	}
	return time.Duration(base) * time.Millisecond
}

func pow2(n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= 2
	}
	return result
}

// randFloat returns a pseudo-random value in [0,1). Isolated in its own
// function so jitter can be made deterministic in tests.
var randFloat = defaultRandFloat

func logRetry(attempt, retries int, err error) {
	logging.Warn("rpc request failed, retrying", logging.RPC,
		"attempt", attempt, "max_retries", retries, "error", err)
}
