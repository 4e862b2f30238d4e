package sink

import (
	"encoding/json"

	"chain-indexer/extractor"

	"github.com/jackc/pgx/v5/pgtype"
)

// jsonb prepares a Go value for a JSONB column as its text
// representation, so the corresponding "::jsonb" placeholder cast
// (text -> jsonb) in the generated INSERT is valid. bigint/binary/
// timestamp fields are already rendered JSON-safe by the decoder and
// normalize packages upstream (bigints as strings, binary as base64,
// timestamps as time.Time, which encoding/json renders as RFC3339).
func jsonb(v any) string {
	if v == nil {
		v = map[string]any{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(map[string]any{"_marshal_error": err.Error()})
	}
	return string(b)
}

func nullableWeight(w *string) pgtype.Text {
	if w == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *w, Valid: true}
}

var blockColumns = []string{
	"height", "block_hash", "time", "proposer_address", "tx_count",
	"last_commit_hash", "data_hash", "evidence_count", "app_hash",
}

func blockRowArgs(r extractor.BlockRow) []any {
	return []any{
		int64(r.Height), r.BlockHash, r.Time, r.ProposerAddr, r.TxCount,
		r.LastCommitHash, r.DataHash, r.EvidenceCount, r.AppHash,
	}
}

var transactionColumns = []string{
	"height", "tx_hash", "tx_index", "code", "gas_wanted", "gas_used",
	"fee", "memo", "signers", "raw_tx", "log_summary", "time",
}

var transactionCasts = []string{
	"", "", "", "", "", "",
	"::jsonb", "", "", "::jsonb", "", "",
}

func transactionRowArgs(r extractor.TransactionRow) []any {
	return []any{
		int64(r.Height), r.TxHash, r.TxIndex, r.Code, r.GasWanted, r.GasUsed,
		jsonb(r.Fee), r.Memo, r.Signers, jsonb(r.RawTx), r.LogSummary, r.Time,
	}
}

var messageColumns = []string{"height", "tx_hash", "msg_index", "type_url", "value", "signer"}
var messageCasts = []string{"", "", "", "", "::jsonb", ""}

func messageRowArgs(r extractor.MessageRow) []any {
	return []any{int64(r.Height), r.TxHash, r.MsgIndex, r.TypeURL, jsonb(r.Value), r.Signer}
}

var eventColumns = []string{"height", "tx_hash", "msg_index", "event_index", "event_type", "time"}

func eventRowArgs(r extractor.EventRow) []any {
	return []any{int64(r.Height), r.TxHash, r.MsgIndex, r.EventIndex, r.EventType, r.Time}
}

var eventAttrColumns = []string{"height", "tx_hash", "msg_index", "event_index", "key", "value"}

func eventAttrRowArgs(r extractor.EventAttributeRow) []any {
	return []any{int64(r.Height), r.TxHash, r.MsgIndex, r.EventIndex, r.Key, r.Value}
}

var transferColumns = []string{"height", "tx_hash", "msg_index", "from_addr", "to_addr", "denom", "amount", "time"}

func transferRowArgs(r extractor.TransferRow) []any {
	return []any{int64(r.Height), r.TxHash, r.MsgIndex, r.FromAddr, r.ToAddr, r.Denom, r.Amount, r.Time}
}

var delegationColumns = []string{
	"height", "tx_hash", "msg_index", "event_type", "delegator_address",
	"validator_src", "validator_dst", "amount", "denom", "time",
}

func delegationRowArgs(r extractor.StakeDelegationRow) []any {
	return []any{
		int64(r.Height), r.TxHash, r.MsgIndex, r.EventType, r.DelegatorAddr,
		r.ValidatorSrc, r.ValidatorDst, r.Amount, r.Denom, r.Time,
	}
}

var distributionColumns = []string{
	"height", "tx_hash", "msg_index", "event_type", "validator_address",
	"delegator_address", "amount", "denom", "withdraw_address", "time",
}

func distributionRowArgs(r extractor.StakeDistributionRow) []any {
	return []any{
		int64(r.Height), r.TxHash, r.MsgIndex, r.EventType, r.ValidatorAddr,
		r.DelegatorAddr, r.Amount, r.Denom, r.WithdrawAddr, r.Time,
	}
}

var wasmExecutionColumns = []string{
	"height", "tx_hash", "msg_index", "contract_address", "sender", "success", "error", "time",
}

func wasmExecutionRowArgs(r extractor.WasmExecutionRow) []any {
	return []any{int64(r.Height), r.TxHash, r.MsgIndex, r.ContractAddr, r.Sender, r.Success, r.Error, r.Time}
}

var wasmEventColumns = []string{
	"height", "tx_hash", "msg_index", "event_index", "contract_address", "event_type", "time",
}

func wasmEventRowArgs(r extractor.WasmEventRow) []any {
	return []any{int64(r.Height), r.TxHash, r.MsgIndex, r.EventIndex, r.ContractAddr, r.EventType, r.Time}
}

var govDepositColumns = []string{"height", "tx_hash", "msg_index", "proposal_id", "depositor", "denom", "amount", "time"}

func govDepositRowArgs(r extractor.GovDepositRow) []any {
	return []any{int64(r.Height), r.TxHash, r.MsgIndex, r.ProposalID, r.Depositor, r.Denom, r.Amount, r.Time}
}

var govVoteColumns = []string{"height", "tx_hash", "msg_index", "proposal_id", "voter", "option", "weight", "time"}

func govVoteRowArgs(r extractor.GovVoteRow) []any {
	return []any{int64(r.Height), r.TxHash, r.MsgIndex, r.ProposalID, r.Voter, r.Option, nullableWeight(r.Weight), r.Time}
}

var govProposalColumns = []string{"proposal_id", "height", "tx_hash", "time"}

func govProposalRowArgs(r extractor.GovProposalRow) []any {
	return []any{r.ProposalID, int64(r.Height), r.TxHash, r.Time}
}
