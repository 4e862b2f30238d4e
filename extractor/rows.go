// Package extractor projects an assembled BlockRecord into the entity
// row sets written to the sink, applying the field-precedence and
// derivation rules for signers, transfers, and derived events.
package extractor

import "time"

type BlockRow struct {
	Height         uint64
	BlockHash      string
	Time           time.Time
	ProposerAddr   string
	TxCount        int
	LastCommitHash string
	DataHash       string
	EvidenceCount  int
	AppHash        string
}

type TransactionRow struct {
	Height     uint64
	TxHash     string
	TxIndex    int
	Code       uint32
	GasWanted  int64
	GasUsed    int64
	Fee        map[string]any
	Memo       string
	Signers    []string
	RawTx      map[string]any
	LogSummary string
	Time       time.Time
}

type MessageRow struct {
	Height   uint64
	TxHash   string
	MsgIndex int
	TypeURL  string
	Value    map[string]any
	Signer   string
}

type EventRow struct {
	Height     uint64
	TxHash     string
	MsgIndex   int
	EventIndex int
	EventType  string
	Time       time.Time
}

type EventAttributeRow struct {
	Height     uint64
	TxHash     string
	MsgIndex   int
	EventIndex int
	Key        string
	Value      string
}

type TransferRow struct {
	Height   uint64
	TxHash   string
	MsgIndex int
	FromAddr string
	ToAddr   string
	Denom    string
	Amount   string
	Time     time.Time
}

type StakeDelegationRow struct {
	Height          uint64
	TxHash          string
	MsgIndex        int
	EventType       string
	DelegatorAddr   string
	ValidatorSrc    string
	ValidatorDst    string
	Amount          string
	Denom           string
	Time            time.Time
}

type StakeDistributionRow struct {
	Height         uint64
	TxHash         string
	MsgIndex       int
	EventType      string
	ValidatorAddr  string
	DelegatorAddr  string
	Amount         string
	Denom          string
	WithdrawAddr   string
	Time           time.Time
}

type WasmExecutionRow struct {
	Height          uint64
	TxHash          string
	MsgIndex        int
	ContractAddr    string
	Sender          string
	Success         bool
	Error           string
	Time            time.Time
}

type WasmEventRow struct {
	Height       uint64
	TxHash       string
	MsgIndex     int
	EventIndex   int
	ContractAddr string
	EventType    string
	Time         time.Time
}

type GovDepositRow struct {
	Height     uint64
	TxHash     string
	MsgIndex   int
	ProposalID string
	Depositor  string
	Denom      string
	Amount     string
	Time       time.Time
}

type GovVoteRow struct {
	Height     uint64
	TxHash     string
	MsgIndex   int
	ProposalID string
	Voter      string
	Option     string
	Weight     *string // decimal string; nil for a simple (unweighted) vote
	Time       time.Time
}

type GovProposalRow struct {
	ProposalID string
	Height     uint64
	TxHash     string
	Time       time.Time
}

// RowSet is everything the row extractor produces for a single block.
type RowSet struct {
	Block        BlockRow
	Transactions []TransactionRow
	Messages     []MessageRow
	Events       []EventRow
	Attributes   []EventAttributeRow
	Transfers    []TransferRow
	Delegations  []StakeDelegationRow
	Distributions []StakeDistributionRow
	WasmExecutions []WasmExecutionRow
	WasmEvents   []WasmEventRow
	GovDeposits  []GovDepositRow
	GovVotes     []GovVoteRow
	GovProposals []GovProposalRow
}
