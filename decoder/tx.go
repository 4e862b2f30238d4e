package decoder

import (
	"encoding/base64"
	"fmt"

	"chain-indexer/errs"
	"chain-indexer/logging"

	sdk "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	"google.golang.org/protobuf/proto"
)

const txTypeURL = "/cosmos.tx.v1beta1.Tx"

// decodeTxBytes runs the transaction decode fallback chain: TxRaw first
// (body/auth_info/signatures as separate byte fields), then a whole-Tx
// decode with body/auth re-encoded, then an empty placeholder. The
// placeholder path returns a non-nil ErrDecode alongside the
// placeholder value so callers can choose to log-and-continue rather
// than fail the whole height.
func decodeTxBytes(registry *Registry, raw []byte, caseConvert func(map[string]any) map[string]any) (DecodedTx, error) {
	var txRaw txtypes.TxRaw
	if err := proto.Unmarshal(raw, &txRaw); err == nil && len(txRaw.BodyBytes) > 0 {
		return buildDecodedTx(registry, txRaw.BodyBytes, txRaw.AuthInfoBytes, txRaw.Signatures, caseConvert), nil
	}

	var whole txtypes.Tx
	if err := proto.Unmarshal(raw, &whole); err == nil && whole.Body != nil {
		bodyBytes, errB := proto.Marshal(whole.Body)
		authBytes, errA := proto.Marshal(whole.AuthInfo)
		if errB == nil && errA == nil {
			return buildDecodedTx(registry, bodyBytes, authBytes, whole.Signatures, caseConvert), nil
		}
	}

	logTxDecodeFailure(raw)
	return placeholderTx(raw), errs.ErrDecode.Wrapf("tx decode exhausted TxRaw and whole-Tx formats, head=%x", headBytes(raw))
}

func headBytes(raw []byte) []byte {
	if len(raw) > 8 {
		return raw[:8]
	}
	return raw
}

func buildDecodedTx(registry *Registry, bodyBytes, authInfoBytes []byte, signatures [][]byte, caseConvert func(map[string]any) map[string]any) DecodedTx {
	var body txtypes.TxBody
	var authInfo txtypes.AuthInfo
	_ = proto.Unmarshal(bodyBytes, &body)
	_ = proto.Unmarshal(authInfoBytes, &authInfo)

	messages := make([]map[string]any, 0, len(body.Messages))
	for _, msgAny := range body.Messages {
		decoded := registry.Decode(msgAny.TypeUrl, msgAny.Value)
		fields := decoded.Fields
		if caseConvert != nil {
			fields = caseConvert(fields)
		}
		fields["@type"] = decoded.TypeURL
		messages = append(messages, fields)
	}

	bodyMap := map[string]any{
		"messages":                        messages,
		"memo":                            body.Memo,
		"timeout_height":                  fmt.Sprintf("%d", body.TimeoutHeight),
		"extension_options":               len(body.ExtensionOptions),
		"non_critical_extension_options":  len(body.NonCriticalExtensionOptions),
	}

	authMap := map[string]any{
		"signer_infos": len(authInfo.SignerInfos),
	}
	if authInfo.Fee != nil {
		authMap["fee"] = map[string]any{
			"gas_limit": fmt.Sprintf("%d", authInfo.Fee.GasLimit),
			"payer":     authInfo.Fee.Payer,
			"granter":   authInfo.Fee.Granter,
			"amount":    feeAmountList(authInfo.Fee.Amount),
		}
	}

	sigs := make([]string, 0, len(signatures))
	for _, s := range signatures {
		sigs = append(sigs, base64.StdEncoding.EncodeToString(s))
	}

	return DecodedTx{
		TypeURL:    txTypeURL,
		Body:       bodyMap,
		AuthInfo:   authMap,
		Signatures: sigs,
	}
}

// feeAmountList renders a fee's paid coins as a list of
// {"denom", "amount"} maps with the amount as a decimal string, the
// same JSON shape a decoded message's coin list has once marshalled.
func feeAmountList(coins sdk.Coins) []map[string]any {
	out := make([]map[string]any, 0, len(coins))
	for _, c := range coins {
		out = append(out, map[string]any{"denom": c.Denom, "amount": c.Amount.String()})
	}
	return out
}

func placeholderTx(raw []byte) DecodedTx {
	return DecodedTx{
		TypeURL:     txTypeURL,
		Body:        map[string]any{"messages": []map[string]any{}},
		AuthInfo:    map[string]any{},
		Signatures:  []string{},
		Placeholder: true,
	}
}

func logTxDecodeFailure(raw []byte) {
	logging.Warn("transaction decode failed, emitting placeholder", logging.Decode,
		"head_hex", fmt.Sprintf("%x", headBytes(raw)))
}
