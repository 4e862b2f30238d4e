package extractor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCoin(t *testing.T) {
	c, ok := ParseCoin("123uatom")
	require.True(t, ok)
	require.Equal(t, Coin{Amount: "123", Denom: "uatom"}, c)

	c, ok = ParseCoin("42ibc/ABC123")
	require.True(t, ok)
	require.Equal(t, Coin{Amount: "42", Denom: "ibc/ABC123"}, c)

	_, ok = ParseCoin("abc")
	require.False(t, ok)

	_, ok = ParseCoin("")
	require.False(t, ok)
}
