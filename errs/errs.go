// Package errs defines the indexer's error taxonomy as registered,
// codespaced sentinels in the style of a Cosmos SDK module's error set.
package errs

import (
	cosmoserrors "cosmossdk.io/errors"
)

const codespace = "indexer"

var (
	// ErrConfig covers anything fatal at start-up: bad URLs, negative
	// durations, an inverted height range, an unknown sink kind.
	ErrConfig = cosmoserrors.Register(codespace, 1, "invalid configuration")

	// ErrTransport is raised by the RPC transport after its retry budget
	// is exhausted (HTTP 5xx/429, connect/read timeouts, aborted conns).
	ErrTransport = cosmoserrors.Register(codespace, 2, "rpc transport failure")

	// ErrRPC covers non-retryable RPC failures: HTTP 4xx other than 429,
	// or a response body that fails to parse as JSON.
	ErrRPC = cosmoserrors.Register(codespace, 3, "rpc request failed")

	// ErrDecode is raised per-transaction when protobuf decoding of the
	// raw tx bytes fails entirely (including the TxRaw/Tx fallback path);
	// the caller still gets a placeholder DecodedTx back alongside it and
	// may choose to continue rather than fail the whole height.
	ErrDecode = cosmoserrors.Register(codespace, 4, "transaction decode failed")

	// ErrBlock is raised by the range runner once a height has exhausted
	// its per-height retry budget and must be recorded as a skip.
	ErrBlock = cosmoserrors.Register(codespace, 5, "block processing failed")

	// ErrSink covers statement errors or timeouts during a sink flush.
	ErrSink = cosmoserrors.Register(codespace, 6, "sink write failed")
)
