package assembler

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"chain-indexer/decoder"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/stretchr/testify/require"
)

func TestAssemble_HashIsUpperHexSha256OfRawTx(t *testing.T) {
	rawTx := []byte("fake-tx-bytes")
	block := &coretypes.ResultBlock{
		Block: &cmttypes.Block{
			Header: cmttypes.Header{ChainID: "test-1", Height: 100, Time: time.Unix(0, 0)},
			Data:   cmttypes.Data{Txs: []cmttypes.Tx{rawTx}},
		},
	}
	results := &coretypes.ResultBlockResults{
		TxsResults: []*abcitypes.ExecTxResult{{Code: 0}},
	}

	record := Assemble(block, results, []decoder.DecodedTx{{}})

	require.Len(t, record.Txs, 1)
	sum := sha256.Sum256(rawTx)
	require.Equal(t, strings.ToUpper(hex.EncodeToString(sum[:])), record.Txs[0].Hash)
}

func TestAssemble_PadsMismatchedTxResults(t *testing.T) {
	block := &coretypes.ResultBlock{
		Block: &cmttypes.Block{
			Header: cmttypes.Header{ChainID: "test-1", Height: 101, Time: time.Unix(0, 0)},
			Data:   cmttypes.Data{Txs: []cmttypes.Tx{[]byte("a"), []byte("b")}},
		},
	}
	results := &coretypes.ResultBlockResults{
		TxsResults: []*abcitypes.ExecTxResult{{Code: 1}},
	}

	record := Assemble(block, results, []decoder.DecodedTx{{}, {}})

	require.Len(t, record.Txs, 2)
	require.Equal(t, uint32(1), record.Txs[0].TxResponse.Code)
	require.Equal(t, uint32(0), record.Txs[1].TxResponse.Code)
}

func TestAssemble_AppendsTxLevelEventsToLogs(t *testing.T) {
	block := &coretypes.ResultBlock{
		Block: &cmttypes.Block{
			Header: cmttypes.Header{ChainID: "test-1", Height: 102, Time: time.Unix(0, 0)},
			Data:   cmttypes.Data{Txs: []cmttypes.Tx{[]byte("a")}},
		},
	}
	results := &coretypes.ResultBlockResults{
		TxsResults: []*abcitypes.ExecTxResult{{
			Code: 0,
			Events: []abcitypes.Event{
				{Type: "transfer", Attributes: []abcitypes.EventAttribute{{Key: "sender", Value: "x"}}},
			},
		}},
	}

	record := Assemble(block, results, []decoder.DecodedTx{{}})

	logs := record.Txs[0].TxResponse.Logs
	require.NotEmpty(t, logs)
	last := logs[len(logs)-1]
	require.Equal(t, -1, last.MsgIndex)
	require.Equal(t, "transfer", last.Events[0].Type)
}
