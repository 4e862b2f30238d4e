package normalize

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsCanonicalBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("recipient"))
	require.True(t, IsCanonicalBase64(encoded))
	require.False(t, IsCanonicalBase64("not base64!!"))
	require.False(t, IsCanonicalBase64(""))
}

func TestDecodeAttrValue_DecodesPrintableText(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("cosmos1abc"))
	decoded, ok := DecodeAttrValue(encoded)
	require.True(t, ok)
	require.Equal(t, "cosmos1abc", decoded)
}

func TestDecodeAttrValue_PassesThroughNonBase64(t *testing.T) {
	decoded, ok := DecodeAttrValue("cosmos1abc")
	require.False(t, ok)
	require.Equal(t, "cosmos1abc", decoded)
}

func TestDecodeAttrValue_PassesThroughNonUTF8Bytes(t *testing.T) {
	raw := []byte{0xff, 0xfe, 0xfd}
	encoded := base64.StdEncoding.EncodeToString(raw)
	decoded, ok := DecodeAttrValue(encoded)
	require.False(t, ok)
	require.Equal(t, encoded, decoded)
}
