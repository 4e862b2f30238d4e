// Package assembler builds a BlockRecord from a raw block response, a
// raw block-results response, and a decoded transaction array aligned
// by index.
package assembler

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"chain-indexer/decoder"
	"chain-indexer/logging"
	"chain-indexer/normalize"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
)

// BlockMeta carries the fields projected out of the raw block header,
// plus the block-level identifiers a block row needs (evidence and the
// raw tx list itself are dropped).
type BlockMeta struct {
	ChainID         string
	Height          int64
	Time            time.Time
	BlockHash       string
	ProposerAddr    string
	LastCommitHash  string
	DataHash        string
	EvidenceCount   int
	AppHash         string
}

// RawTx carries both encodings of a transaction's raw bytes.
type RawTx struct {
	Base64 string
	Hex    string // upper hex
}

// TxResponse is the projection of one entry of BR.txs_results, enriched
// with normalized events and per-message logs.
type TxResponse struct {
	Code      uint32
	Codespace string
	Data      string
	GasWanted int64
	GasUsed   int64
	RawLog    string
	Events    []normalize.Event
	Logs      []normalize.LogEntry
	Timestamp time.Time
}

// Tx is one assembled transaction within a BlockRecord.
type Tx struct {
	Hash       string // upper hex sha256 of decoded tx bytes
	Raw        RawTx
	Decoded    decoder.DecodedTx
	TxResponse TxResponse
}

// BlockRecord is the output of block assembly: a block stripped of its
// heavy evidence/raw-tx lists, plus the assembled transactions.
type BlockRecord struct {
	Meta  BlockMeta
	Txs   []Tx
}

// Assemble builds a BlockRecord from the raw block, its ABCI results,
// and the already-decoded transactions. decodedTxs must be aligned by
// index with block.Block.Data.Txs; case conversion has already been
// applied inside decodedTxs, so this function does not re-convert them.
func Assemble(block *coretypes.ResultBlock, blockResults *coretypes.ResultBlockResults, decodedTxs []decoder.DecodedTx) BlockRecord {
	meta := BlockMeta{
		ChainID:        block.Block.Header.ChainID,
		Height:         block.Block.Header.Height,
		Time:           block.Block.Header.Time,
		BlockHash:      strings.ToUpper(block.BlockID.Hash.String()),
		ProposerAddr:   block.Block.Header.ProposerAddress.String(),
		LastCommitHash: strings.ToUpper(block.Block.Header.LastCommitHash.String()),
		DataHash:       strings.ToUpper(block.Block.Header.DataHash.String()),
		EvidenceCount:  len(block.Block.Evidence.Evidence),
		AppHash:        strings.ToUpper(block.Block.Header.AppHash.String()),
	}

	rawTxs := block.Block.Data.Txs
	txResults := blockResults.TxsResults
	txResults = padTxResults(txResults, len(rawTxs), meta.Height)

	txs := make([]Tx, 0, len(rawTxs))
	for i, rawTx := range rawTxs {
		hash := sha256.Sum256(rawTx)
		hexHash := strings.ToUpper(hex.EncodeToString(hash[:]))

		var decoded decoder.DecodedTx
		if i < len(decodedTxs) {
			decoded = decodedTxs[i]
		}

		result := txResults[i]
		txEvents := make([]normalize.Event, 0, len(result.Events))
		for _, ev := range result.Events {
			txEvents = append(txEvents, convertAbciEvent(ev))
		}

		logs := normalize.ParseRawLog(result.Log)
		logs = normalize.AppendTxLevelEntry(logs, txEvents)

		txs = append(txs, Tx{
			Hash: hexHash,
			Raw: RawTx{
				Base64: base64.StdEncoding.EncodeToString(rawTx),
				Hex:    strings.ToUpper(hex.EncodeToString(rawTx)),
			},
			Decoded: decoded,
			TxResponse: TxResponse{
				Code:      result.Code,
				Codespace: result.Codespace,
				Data:      base64.StdEncoding.EncodeToString(result.Data),
				GasWanted: result.GasWanted,
				GasUsed:   result.GasUsed,
				RawLog:    result.Log,
				Events:    txEvents,
				Logs:      logs,
				Timestamp: meta.Time,
			},
		})
	}

	return BlockRecord{Meta: meta, Txs: txs}
}

// padTxResults handles the case where BR.txs_results is shorter than
// the raw tx list: pad with { code: 0, events: [] } and log a debug
// line.
func padTxResults(results []*abcitypes.ExecTxResult, want int, height int64) []*abcitypes.ExecTxResult {
	if len(results) == want {
		return results
	}
	logging.Debug("txs_results length mismatch, padding", logging.Assemble,
		"height", height, "want", want, "got", len(results))
	padded := make([]*abcitypes.ExecTxResult, want)
	copy(padded, results)
	for i := len(results); i < want; i++ {
		padded[i] = &abcitypes.ExecTxResult{}
	}
	return padded
}

func convertAbciEvent(ev abcitypes.Event) normalize.Event {
	attrs := make([]normalize.RawAttribute, 0, len(ev.Attributes))
	for _, a := range ev.Attributes {
		index := a.Index
		attrs = append(attrs, normalize.RawAttribute{Key: a.Key, Value: a.Value, Index: &index})
	}
	return normalize.NormalizeEvent(ev.Type, attrs)
}
