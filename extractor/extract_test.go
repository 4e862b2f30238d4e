package extractor

import (
	"testing"
	"time"

	"chain-indexer/assembler"
	"chain-indexer/decoder"
	"chain-indexer/normalize"

	"github.com/stretchr/testify/require"
)

func txWithMessages(msgs []map[string]any) assembler.Tx {
	return assembler.Tx{
		Hash: "ABC123",
		Decoded: decoder.DecodedTx{
			Body: map[string]any{
				"messages": toAnySlice(msgs),
			},
		},
		TxResponse: assembler.TxResponse{Code: 0},
	}
}

func toAnySlice(msgs []map[string]any) []any {
	out := make([]any, len(msgs))
	for i, m := range msgs {
		out[i] = m
	}
	return out
}

func TestExtract_MessageSignerPrecedence(t *testing.T) {
	tx := txWithMessages([]map[string]any{
		{"@type": "/cosmos.bank.v1beta1.MsgSend", "from_address": "cosmos1from", "to_address": "cosmos1to"},
	})
	record := assembler.BlockRecord{Meta: assembler.BlockMeta{Height: 10}, Txs: []assembler.Tx{tx}}

	rs := Extract(record)
	require.Len(t, rs.Messages, 1)
	require.Equal(t, "cosmos1from", rs.Messages[0].Signer)
}

func TestExtract_TransferEventRequiresAllThreeAttrs(t *testing.T) {
	tx := txWithMessages(nil)
	tx.TxResponse.Logs = []normalize.LogEntry{
		{MsgIndex: -1, Events: []normalize.Event{
			{Type: "transfer", Attributes: []normalize.Attribute{
				{Key: "sender", Value: "cosmos1a"},
				{Key: "recipient", Value: "cosmos1b"},
				{Key: "amount", Value: "100uatom"},
			}},
		}},
	}
	record := assembler.BlockRecord{Meta: assembler.BlockMeta{Height: 10}, Txs: []assembler.Tx{tx}}

	rs := Extract(record)
	require.Len(t, rs.Transfers, 1)
	require.Equal(t, "cosmos1a", rs.Transfers[0].FromAddr)
	require.Equal(t, "100", rs.Transfers[0].Amount)
	require.Equal(t, "uatom", rs.Transfers[0].Denom)
}

func TestExtract_TransferEventMissingAttrIsSkipped(t *testing.T) {
	tx := txWithMessages(nil)
	tx.TxResponse.Logs = []normalize.LogEntry{
		{MsgIndex: -1, Events: []normalize.Event{
			{Type: "transfer", Attributes: []normalize.Attribute{
				{Key: "sender", Value: "cosmos1a"},
			}},
		}},
	}
	record := assembler.BlockRecord{Meta: assembler.BlockMeta{Height: 10}, Txs: []assembler.Tx{tx}}

	rs := Extract(record)
	require.Empty(t, rs.Transfers)
}

func TestExtract_DelegationFallsBackToMessageFields(t *testing.T) {
	tx := txWithMessages([]map[string]any{
		{
			"@type":              "/cosmos.staking.v1beta1.MsgDelegate",
			"delegator_address":  "cosmos1del",
			"validator_address":  "cosmosvaloper1val",
			"amount":             map[string]any{"denom": "uatom", "amount": "500"},
		},
	})
	tx.TxResponse.Logs = []normalize.LogEntry{
		{MsgIndex: 0, Events: []normalize.Event{
			{Type: "delegate", Attributes: []normalize.Attribute{}},
		}},
	}
	record := assembler.BlockRecord{Meta: assembler.BlockMeta{Height: 10}, Txs: []assembler.Tx{tx}}

	rs := Extract(record)
	require.Len(t, rs.Delegations, 1)
	require.Equal(t, "cosmos1del", rs.Delegations[0].DelegatorAddr)
	require.Equal(t, "cosmosvaloper1val", rs.Delegations[0].ValidatorDst)
	require.Equal(t, "500", rs.Delegations[0].Amount)
}

func TestExtract_WasmExecutionSuccessAndFailure(t *testing.T) {
	tx := txWithMessages([]map[string]any{
		{"@type": "/cosmwasm.wasm.v1.MsgExecuteContract", "contract": "cosmos1contract", "sender": "cosmos1sender"},
	})
	tx.TxResponse.Code = 5
	tx.TxResponse.RawLog = "execute wasm contract failed"
	record := assembler.BlockRecord{Meta: assembler.BlockMeta{Height: 10}, Txs: []assembler.Tx{tx}}

	rs := Extract(record)
	require.Len(t, rs.WasmExecutions, 1)
	require.False(t, rs.WasmExecutions[0].Success)
	require.NotEmpty(t, rs.WasmExecutions[0].Error)
}

func TestExtract_WeightedVoteUsesDecimalWeight(t *testing.T) {
	tx := txWithMessages([]map[string]any{
		{
			"@type":       "/cosmos.gov.v1beta1.MsgVoteWeighted",
			"proposal_id": "7",
			"voter":       "cosmos1voter",
			"options": []any{
				map[string]any{"option": "VOTE_OPTION_YES", "weight": "0.700000000000000000"},
			},
		},
	})
	record := assembler.BlockRecord{Meta: assembler.BlockMeta{Height: 10}, Txs: []assembler.Tx{tx}}

	rs := Extract(record)
	require.Len(t, rs.GovVotes, 1)
	require.NotNil(t, rs.GovVotes[0].Weight)
	require.Equal(t, "0.700000000000000000", *rs.GovVotes[0].Weight)
}

func TestExtract_SimpleVoteHasNilWeight(t *testing.T) {
	tx := txWithMessages([]map[string]any{
		{"@type": "/cosmos.gov.v1beta1.MsgVote", "proposal_id": "7", "voter": "cosmos1voter", "option": "VOTE_OPTION_YES"},
	})
	record := assembler.BlockRecord{Meta: assembler.BlockMeta{Height: 10}, Txs: []assembler.Tx{tx}}

	rs := Extract(record)
	require.Len(t, rs.GovVotes, 1)
	require.Nil(t, rs.GovVotes[0].Weight)
}

func TestExtract_BlockRowCarriesTxCount(t *testing.T) {
	record := assembler.BlockRecord{
		Meta: assembler.BlockMeta{Height: 42, Time: time.Unix(1000, 0)},
		Txs:  []assembler.Tx{txWithMessages(nil), txWithMessages(nil)},
	}
	rs := Extract(record)
	require.Equal(t, uint64(42), rs.Block.Height)
	require.Equal(t, 2, rs.Block.TxCount)
}

func TestExtract_GovProposalEmittedWhenProposalIDPresent(t *testing.T) {
	tx := txWithMessages(nil)
	tx.TxResponse.Logs = []normalize.LogEntry{
		{MsgIndex: 0, Events: []normalize.Event{
			{Type: "submit_proposal", Attributes: []normalize.Attribute{
				{Key: "proposal_id", Value: "7"},
			}},
		}},
	}
	record := assembler.BlockRecord{Meta: assembler.BlockMeta{Height: 10}, Txs: []assembler.Tx{tx}}

	rs := Extract(record)
	require.Len(t, rs.GovProposals, 1)
	require.Equal(t, "7", rs.GovProposals[0].ProposalID)
	require.Equal(t, uint64(10), rs.GovProposals[0].Height)
}

func TestExtract_GovProposalSkippedWithoutProposalID(t *testing.T) {
	tx := txWithMessages(nil)
	tx.TxResponse.Logs = []normalize.LogEntry{
		{MsgIndex: 0, Events: []normalize.Event{
			{Type: "proposal", Attributes: []normalize.Attribute{
				{Key: "proposal_result", Value: "proposal_passed"},
			}},
		}},
	}
	record := assembler.BlockRecord{Meta: assembler.BlockMeta{Height: 10}, Txs: []assembler.Tx{tx}}

	rs := Extract(record)
	require.Empty(t, rs.GovProposals)
}
