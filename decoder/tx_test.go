package decoder

import (
	"errors"
	"testing"

	"chain-indexer/errs"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
)

func TestDecodeTxBytes_GarbageBytesReturnsErrDecodeWithPlaceholder(t *testing.T) {
	registry := NewRegistry()
	tx, err := decodeTxBytes(registry, []byte{0xff, 0x00, 0xff, 0x00}, nil)

	require.True(t, errors.Is(err, errs.ErrDecode))
	require.True(t, tx.Placeholder)
	require.Equal(t, txTypeURL, tx.TypeURL)
}

func TestFeeAmountList_RendersDenomAndAmount(t *testing.T) {
	coins := sdk.NewCoins(sdk.NewInt64Coin("uatom", 1500))

	out := feeAmountList(coins)

	require.Len(t, out, 1)
	require.Equal(t, "uatom", out[0]["denom"])
	require.Equal(t, "1500", out[0]["amount"])
}

func TestFeeAmountList_EmptyCoinsProducesEmptySlice(t *testing.T) {
	out := feeAmountList(nil)
	require.Empty(t, out)
}
