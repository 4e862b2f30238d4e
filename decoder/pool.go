package decoder

import (
	"context"
	"encoding/base64"
	"sync"

	"chain-indexer/errs"
)

// DecodedTx is the normalized decoded transaction shape: `@type` plus
// body/auth_info/signatures. Message payloads in Body already have the
// pool's case conversion applied (every key except "@type").
type DecodedTx struct {
	TypeURL    string
	Body       map[string]any
	AuthInfo   map[string]any
	Signatures []string
	Placeholder bool
}

type job struct {
	ctx      context.Context
	base64Tx string
	result   chan<- jobResult
}

type jobResult struct {
	tx  DecodedTx
	err error
}

// Pool is the bounded worker pool calls for: `submit`
// backpressures once `pool_size` workers are all busy, `close`
// terminates workers gracefully once the queue drains.
type Pool struct {
	registry *Registry
	caseMode func(map[string]any) map[string]any
	jobs     chan job
	workers  sync.WaitGroup
}

// NewPool starts poolSize workers sharing registry. caseConvert is
// applied to every message payload's fields (never to "@type").
func NewPool(registry *Registry, poolSize int, caseConvert func(map[string]any) map[string]any) *Pool {
	p := &Pool{
		registry: registry,
		caseMode: caseConvert,
		jobs:     make(chan job, poolSize),
	}
	p.workers.Add(poolSize)
	for i := 0; i < poolSize; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for j := range p.jobs {
		tx, err := p.decodeOne(j.ctx, j.base64Tx)
		select {
		case j.result <- jobResult{tx: tx, err: err}:
		case <-j.ctx.Done():
		}
	}
}

// Submit decodes one base64-encoded transaction, blocking if every
// worker is already busy (the channel send backpressures the caller).
func (p *Pool) Submit(ctx context.Context, base64Tx string) (DecodedTx, error) {
	resultCh := make(chan jobResult, 1)
	select {
	case p.jobs <- job{ctx: ctx, base64Tx: base64Tx, result: resultCh}:
	case <-ctx.Done():
		return DecodedTx{}, ctx.Err()
	}
	select {
	case r := <-resultCh:
		return r.tx, r.err
	case <-ctx.Done():
		return DecodedTx{}, ctx.Err()
	}
}

// Close stops accepting new work and waits for the in-flight workers
// to finish.
func (p *Pool) Close() {
	close(p.jobs)
	p.workers.Wait()
}

func (p *Pool) decodeOne(ctx context.Context, base64Tx string) (DecodedTx, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Tx)
	if err != nil {
		return placeholderTx(raw), errs.ErrDecode.Wrapf("invalid base64 tx: %v", err)
	}
	return decodeTxBytes(p.registry, raw, p.caseMode)
}
