package extractor

import (
	"chain-indexer/assembler"

	"github.com/shopspring/decimal"
)

var signerFieldPrecedence = []string{"signer", "from_address", "delegator_address"}

// txSignerFieldPrecedence is the broader field list used to infer a
// transaction's signers when the decoded tx carries none.
var txSignerFieldPrecedence = []string{
	"signer", "from_address", "delegator_address", "validator_address",
	"authority", "admin", "granter", "grantee", "sender", "creator",
}

var delegationEventTypes = map[string]bool{
	"delegate": true, "redelegate": true, "unbond": true, "complete_unbonding": true,
}

var distributionEventTypes = map[string]bool{
	"withdraw_rewards": true, "withdraw_commission": true, "set_withdraw_address": true,
}

// Extract projects one assembled BlockRecord into the full set of
// entity rows.
func Extract(record assembler.BlockRecord) RowSet {
	rs := RowSet{
		Block: BlockRow{
			Height:         uint64(record.Meta.Height),
			BlockHash:      record.Meta.BlockHash,
			Time:           record.Meta.Time,
			ProposerAddr:   record.Meta.ProposerAddr,
			TxCount:        len(record.Txs),
			LastCommitHash: record.Meta.LastCommitHash,
			DataHash:       record.Meta.DataHash,
			EvidenceCount:  record.Meta.EvidenceCount,
			AppHash:        record.Meta.AppHash,
		},
	}

	height := uint64(record.Meta.Height)
	for txIndex, tx := range record.Txs {
		rs.Transactions = append(rs.Transactions, TransactionRow{
			Height:     height,
			TxHash:     tx.Hash,
			TxIndex:    txIndex,
			Code:       tx.TxResponse.Code,
			GasWanted:  tx.TxResponse.GasWanted,
			GasUsed:    tx.TxResponse.GasUsed,
			Fee:        tx.Decoded.AuthInfo,
			Memo:       stringField(tx.Decoded.Body, "memo"),
			Signers:    deriveTxSigners(tx),
			RawTx:      tx.Decoded.Body,
			LogSummary: logSummary(tx),
			Time:       record.Meta.Time,
		})

		messages := decodedMessages(tx.Decoded.Body)
		for msgIndex, msg := range messages {
			typeURL, _ := msg["@type"].(string)
			signer, _ := firstMsgField(msg, signerFieldPrecedence...)
			rs.Messages = append(rs.Messages, MessageRow{
				Height:   height,
				TxHash:   tx.Hash,
				MsgIndex: msgIndex,
				TypeURL:  typeURL,
				Value:    msg,
				Signer:   signer,
			})

			if typeURL == "/cosmwasm.wasm.v1.MsgExecuteContract" {
				rs.WasmExecutions = append(rs.WasmExecutions, extractWasmExecution(height, tx, msgIndex, msg))
			}

			extractGov(&rs, height, tx, msgIndex, typeURL, msg)
		}

		for _, entry := range tx.TxResponse.Logs {
			for eventIndex, ev := range entry.Events {
				rs.Events = append(rs.Events, EventRow{
					Height:     height,
					TxHash:     tx.Hash,
					MsgIndex:   entry.MsgIndex,
					EventIndex: eventIndex,
					EventType:  ev.Type,
					Time:       record.Meta.Time,
				})
				for _, attr := range ev.Attributes {
					rs.Attributes = append(rs.Attributes, EventAttributeRow{
						Height:     height,
						TxHash:     tx.Hash,
						MsgIndex:   entry.MsgIndex,
						EventIndex: eventIndex,
						Key:        attr.Key,
						Value:      attr.Value,
					})
				}

				extractDerivedEventRows(&rs, height, tx, entry.MsgIndex, eventIndex, ev, messages, record.Meta.Time)
			}
		}
	}

	return rs
}

func decodedMessages(body map[string]any) []map[string]any {
	raw, ok := body["messages"]
	if !ok {
		return nil
	}
	list, ok := raw.([]map[string]any)
	if ok {
		return list
	}
	if anyList, ok := raw.([]any); ok {
		out := make([]map[string]any, 0, len(anyList))
		for _, item := range anyList {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func logSummary(tx assembler.Tx) string {
	if tx.TxResponse.Code == 0 {
		return ""
	}
	log := tx.TxResponse.RawLog
	if len(log) > 256 {
		return log[:256]
	}
	return log
}

// deriveTxSigners infers a transaction's signer set from message-level
// address fields, filtered to addresses of length >= 10.
func deriveTxSigners(tx assembler.Tx) []string {
	seen := map[string]bool{}
	var signers []string
	for _, msg := range decodedMessages(tx.Decoded.Body) {
		if addr, ok := firstMsgField(msg, txSignerFieldPrecedence...); ok && len(addr) >= 10 {
			if !seen[addr] {
				seen[addr] = true
				signers = append(signers, addr)
			}
		}
	}
	return signers
}

func extractWasmExecution(height uint64, tx assembler.Tx, msgIndex int, msg map[string]any) WasmExecutionRow {
	contract, _ := firstMsgField(msg, "contract")
	sender, _ := firstMsgField(msg, "sender")
	row := WasmExecutionRow{
		Height:       height,
		TxHash:       tx.Hash,
		MsgIndex:     msgIndex,
		ContractAddr: contract,
		Sender:       sender,
		Success:      tx.TxResponse.Code == 0,
		Time:         tx.TxResponse.Timestamp,
	}
	if !row.Success {
		row.Error = logSummary(tx)
	}
	return row
}

func extractGov(rs *RowSet, height uint64, tx assembler.Tx, msgIndex int, typeURL string, msg map[string]any) {
	switch typeURL {
	case "/cosmos.gov.v1beta1.MsgDeposit", "/cosmos.gov.v1.MsgDeposit":
		proposalID, _ := firstMsgField(msg, "proposal_id")
		depositor, _ := firstMsgField(msg, "depositor")
		for _, coin := range coinList(msg["amount"]) {
			rs.GovDeposits = append(rs.GovDeposits, GovDepositRow{
				Height:     height,
				TxHash:     tx.Hash,
				MsgIndex:   msgIndex,
				ProposalID: proposalID,
				Depositor:  depositor,
				Denom:      coin.Denom,
				Amount:     coin.Amount,
				Time:       tx.TxResponse.Timestamp,
			})
		}
	case "/cosmos.gov.v1beta1.MsgVote", "/cosmos.gov.v1.MsgVote":
		proposalID, _ := firstMsgField(msg, "proposal_id")
		voter, _ := firstMsgField(msg, "voter")
		option, _ := firstMsgField(msg, "option")
		rs.GovVotes = append(rs.GovVotes, GovVoteRow{
			Height:     height,
			TxHash:     tx.Hash,
			MsgIndex:   msgIndex,
			ProposalID: proposalID,
			Voter:      voter,
			Option:     option,
			Weight:     nil,
			Time:       tx.TxResponse.Timestamp,
		})
	case "/cosmos.gov.v1beta1.MsgVoteWeighted", "/cosmos.gov.v1.MsgVoteWeighted":
		proposalID, _ := firstMsgField(msg, "proposal_id")
		voter, _ := firstMsgField(msg, "voter")
		option, weight, ok := firstWeightedOption(msg["options"])
		if ok {
			rs.GovVotes = append(rs.GovVotes, GovVoteRow{
				Height:     height,
				TxHash:     tx.Hash,
				MsgIndex:   msgIndex,
				ProposalID: proposalID,
				Voter:      voter,
				Option:     option,
				Weight:     &weight,
				Time:       tx.TxResponse.Timestamp,
			})
		}
	}
}

func coinList(v any) []Coin {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Coin, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		denom, _ := m["denom"].(string)
		amount, _ := m["amount"].(string)
		if denom != "" && amount != "" {
			out = append(out, Coin{Amount: amount, Denom: denom})
		}
	}
	return out
}

// firstWeightedOption returns the first WeightedVoteOption's option and
// weight (rendered through shopspring/decimal so a fractional weight
// like "0.700000000000000000" round-trips without float imprecision).
func firstWeightedOption(v any) (string, string, bool) {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return "", "", false
	}
	m, ok := items[0].(map[string]any)
	if !ok {
		return "", "", false
	}
	option, _ := m["option"].(string)
	weightStr, _ := m["weight"].(string)
	if weightStr == "" {
		return option, "", false
	}
	weight, err := decimal.NewFromString(weightStr)
	if err != nil {
		return option, weightStr, true
	}
	return option, weight.StringFixed(-weight.Exponent()), true
}

