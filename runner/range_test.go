package runner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"chain-indexer/decoder"
	"chain-indexer/extractor"
	"chain-indexer/rpcclient"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu        sync.Mutex
	failTwice map[int64]int
	permFail  map[int64]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failTwice: map[int64]int{}, permFail: map[int64]bool{}}
}

func (f *fakeTransport) Block(ctx context.Context, height int64) (*coretypes.ResultBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.permFail[height] {
		return nil, fmt.Errorf("permanent failure at height %d", height)
	}
	if f.failTwice[height] < 2 {
		f.failTwice[height]++
		return nil, fmt.Errorf("transient failure at height %d", height)
	}
	return &coretypes.ResultBlock{
		Block: &cmttypes.Block{
			Header: cmttypes.Header{Height: height, ChainID: "test-chain", Time: time.Unix(0, 0).UTC()},
			Data:   cmttypes.Data{Txs: []cmttypes.Tx{}},
		},
	}, nil
}

func (f *fakeTransport) BlockResults(ctx context.Context, height int64) (*coretypes.ResultBlockResults, error) {
	return &coretypes.ResultBlockResults{TxsResults: []*abcitypes.ExecTxResult{}}, nil
}

func (f *fakeTransport) Status(ctx context.Context) (rpcclient.ChainStatus, error) {
	return rpcclient.ChainStatus{}, nil
}

type fakeDecoder struct{}

func (fakeDecoder) Submit(ctx context.Context, base64Tx string) (decoder.DecodedTx, error) {
	return decoder.DecodedTx{}, nil
}

type recordingSink struct {
	mu      sync.Mutex
	heights []uint64
}

func (s *recordingSink) Write(_ context.Context, rows extractor.RowSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heights = append(s.heights, rows.Block.Height)
	return nil
}
func (s *recordingSink) Close(context.Context) error { return nil }

func TestRun_WritesEveryHeightInAscendingOrder(t *testing.T) {
	transport := newFakeTransport()
	sink := &recordingSink{}
	deps := Deps{Transport: transport, Decoder: fakeDecoder{}, Sink: sink}

	err := Run(context.Background(), deps, Options{
		From: 100, To: 110, Concurrency: 4, BlockTimeout: time.Second, MaxBlockRetries: 3,
	})
	require.NoError(t, err)
	require.Len(t, sink.heights, 11)
	for i, h := range sink.heights {
		require.Equal(t, uint64(100+i), h)
	}
}

func TestRun_RetriesThenSucceeds(t *testing.T) {
	transport := newFakeTransport()
	sink := &recordingSink{}
	deps := Deps{Transport: transport, Decoder: fakeDecoder{}, Sink: sink}

	err := Run(context.Background(), deps, Options{
		From: 200, To: 200, Concurrency: 1, BlockTimeout: time.Second, MaxBlockRetries: 3,
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{200}, sink.heights)
}

func TestRun_SkipsAfterExhaustingRetries(t *testing.T) {
	transport := newFakeTransport()
	transport.permFail[300] = true
	sink := &recordingSink{}
	deps := Deps{Transport: transport, Decoder: fakeDecoder{}, Sink: sink}

	err := Run(context.Background(), deps, Options{
		From: 299, To: 301, Concurrency: 4, BlockTimeout: time.Second, MaxBlockRetries: 2,
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{299, 301}, sink.heights)
}
