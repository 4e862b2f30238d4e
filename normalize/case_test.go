package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeepConvert_PreservesAtPrefixedKeys(t *testing.T) {
	in := map[string]any{
		"@type":      "/cosmos.bank.v1beta1.MsgSend",
		"FromAddress": "cosmos1abc",
		"Amount": []any{
			map[string]any{"Denom": "uatom", "Amount": "100"},
		},
	}
	out := DeepConvert(in, SnakeCase).(map[string]any)
	require.Equal(t, "/cosmos.bank.v1beta1.MsgSend", out["@type"])
	require.Contains(t, out, "from_address")
	require.Equal(t, "cosmos1abc", out["from_address"])

	amounts := out["amount"].([]any)
	coin := amounts[0].(map[string]any)
	require.Equal(t, "uatom", coin["denom"])
}

func TestDeepConvert_RoundTripPreservesLeafValues(t *testing.T) {
	in := map[string]any{
		"FromAddress": "cosmos1abc",
		"Nested": map[string]any{
			"SomeValue": 42,
		},
	}
	snake := DeepConvert(in, SnakeCase)
	camel := DeepConvert(snake, CamelCase).(map[string]any)

	nested := camel["nested"].(map[string]any)
	require.Equal(t, 42, nested["someValue"])
}

func TestForMode_Snake(t *testing.T) {
	fn := ForMode("snake")
	out := fn(map[string]any{"FromAddress": "x"})
	require.Equal(t, "x", out["from_address"])
}

func TestForMode_Camel(t *testing.T) {
	fn := ForMode("camel")
	out := fn(map[string]any{"from_address": "x"})
	require.Equal(t, "x", out["fromAddress"])
}
