package extractor

import (
	"time"

	"chain-indexer/assembler"
	"chain-indexer/normalize"
)

// extractDerivedEventRows implements the per-event derivation rules for
// transfer, stake delegation/distribution, and wasm rows, each keyed to
// the message (if any) at msgIndex.
func extractDerivedEventRows(rs *RowSet, height uint64, tx assembler.Tx, msgIndex, eventIndex int, ev normalize.Event, messages []map[string]any, blockTime time.Time) {
	switch {
	case ev.Type == "transfer":
		extractTransfer(rs, height, tx, msgIndex, ev, blockTime)
	case delegationEventTypes[ev.Type]:
		extractDelegation(rs, height, tx, msgIndex, ev, messages, blockTime)
	case distributionEventTypes[ev.Type]:
		extractDistribution(rs, height, tx, msgIndex, ev, blockTime)
	case ev.Type == "wasm":
		extractWasmEvent(rs, height, tx, msgIndex, eventIndex, ev, blockTime)
	case ev.Type == "submit_proposal" || ev.Type == "proposal":
		extractGovProposal(rs, height, tx, ev, blockTime)
	}
}

// extractGovProposal emits a GovProposal row when proposal_id is
// extractable from a submit_proposal or proposal event. Later lifecycle
// events for the same proposal_id land as separate rows and are merged
// by the sink's coalescing upsert.
func extractGovProposal(rs *RowSet, height uint64, tx assembler.Tx, ev normalize.Event, blockTime time.Time) {
	proposalID, ok := attrValue(ev.Attributes, "proposal_id")
	if !ok {
		return
	}
	rs.GovProposals = append(rs.GovProposals, GovProposalRow{
		ProposalID: proposalID,
		Height:     height,
		TxHash:     tx.Hash,
		Time:       blockTime,
	})
}

func extractTransfer(rs *RowSet, height uint64, tx assembler.Tx, msgIndex int, ev normalize.Event, blockTime time.Time) {
	sender, hasSender := attrValue(ev.Attributes, "sender")
	recipient, hasRecipient := attrValue(ev.Attributes, "recipient")
	amountStr, hasAmount := attrValue(ev.Attributes, "amount")
	if !hasSender || !hasRecipient || !hasAmount {
		return
	}
	coin, ok := ParseCoin(amountStr)
	if !ok {
		return
	}
	rs.Transfers = append(rs.Transfers, TransferRow{
		Height:   height,
		TxHash:   tx.Hash,
		MsgIndex: msgIndex,
		FromAddr: sender,
		ToAddr:   recipient,
		Denom:    coin.Denom,
		Amount:   coin.Amount,
		Time:     blockTime,
	})
}

func extractDelegation(rs *RowSet, height uint64, tx assembler.Tx, msgIndex int, ev normalize.Event, messages []map[string]any, blockTime time.Time) {
	delegator, _ := firstAttrValue(ev.Attributes, "delegator_address", "delegator")
	validatorSrc, _ := firstAttrValue(ev.Attributes, "source_validator", "validator_src")
	validatorDst, _ := firstAttrValue(ev.Attributes, "destination_validator", "validator_dst", "validator")
	amountAttr, hasAmount := firstAttrValue(ev.Attributes, "amount", "completion_amount")

	var msg map[string]any
	if msgIndex >= 0 && msgIndex < len(messages) {
		msg = messages[msgIndex]
	}
	if msg != nil {
		typeURL, _ := msg["@type"].(string)
		if delegator == "" {
			delegator, _ = firstMsgField(msg, "delegator_address")
		}
		switch typeURL {
		case "/cosmos.staking.v1beta1.MsgBeginRedelegate":
			if validatorSrc == "" {
				validatorSrc, _ = firstMsgField(msg, "validator_src_address", "source_validator_address")
			}
			if validatorDst == "" {
				validatorDst, _ = firstMsgField(msg, "validator_dst_address", "destination_validator_address")
			}
		case "/cosmos.staking.v1beta1.MsgDelegate", "/cosmos.staking.v1beta1.MsgUndelegate":
			if validatorDst == "" {
				validatorDst, _ = firstMsgField(msg, "validator_address")
			}
		}
		if !hasAmount {
			if coin, ok := msg["amount"].(map[string]any); ok {
				denom, _ := coin["denom"].(string)
				amt, _ := coin["amount"].(string)
				if denom != "" && amt != "" {
					rs.Delegations = append(rs.Delegations, StakeDelegationRow{
						Height: height, TxHash: tx.Hash, MsgIndex: msgIndex, EventType: ev.Type,
						DelegatorAddr: delegator, ValidatorSrc: validatorSrc, ValidatorDst: validatorDst,
						Amount: amt, Denom: denom, Time: blockTime,
					})
					return
				}
			}
		}
	}

	if hasAmount {
		if coin, ok := ParseCoin(amountAttr); ok {
			rs.Delegations = append(rs.Delegations, StakeDelegationRow{
				Height: height, TxHash: tx.Hash, MsgIndex: msgIndex, EventType: ev.Type,
				DelegatorAddr: delegator, ValidatorSrc: validatorSrc, ValidatorDst: validatorDst,
				Amount: coin.Amount, Denom: coin.Denom, Time: blockTime,
			})
		}
	}
}

func extractDistribution(rs *RowSet, height uint64, tx assembler.Tx, msgIndex int, ev normalize.Event, blockTime time.Time) {
	validator, _ := attrValue(ev.Attributes, "validator")
	delegator, _ := attrValue(ev.Attributes, "delegator_address")
	withdrawAddr, _ := attrValue(ev.Attributes, "withdraw_address")
	amountAttr, hasAmount := attrValue(ev.Attributes, "amount")

	row := StakeDistributionRow{
		Height: height, TxHash: tx.Hash, MsgIndex: msgIndex, EventType: ev.Type,
		ValidatorAddr: validator, DelegatorAddr: delegator, WithdrawAddr: withdrawAddr, Time: blockTime,
	}
	if hasAmount {
		if coin, ok := ParseCoin(amountAttr); ok {
			row.Amount = coin.Amount
			row.Denom = coin.Denom
		}
	}
	rs.Distributions = append(rs.Distributions, row)
}

func extractWasmEvent(rs *RowSet, height uint64, tx assembler.Tx, msgIndex, eventIndex int, ev normalize.Event, blockTime time.Time) {
	contract, ok := firstAttrValue(ev.Attributes, "_contract_address", "contract_address")
	if !ok {
		return
	}
	rs.WasmEvents = append(rs.WasmEvents, WasmEventRow{
		Height:       height,
		TxHash:       tx.Hash,
		MsgIndex:     msgIndex,
		EventIndex:   eventIndex,
		ContractAddr: contract,
		EventType:    ev.Type,
		Time:         blockTime,
	})
}
