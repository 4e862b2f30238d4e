package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRawLog_EmptyOnParseFailure(t *testing.T) {
	require.Nil(t, ParseRawLog("not json"))
	require.Nil(t, ParseRawLog(""))
}

func TestParseRawLog_DefaultsMsgIndexToNegativeOne(t *testing.T) {
	entries := ParseRawLog(`[{"events":[{"type":"transfer","attributes":[]}]}]`)
	require.Len(t, entries, 1)
	require.Equal(t, -1, entries[0].MsgIndex)
}

func TestParseRawLog_PreservesExplicitMsgIndex(t *testing.T) {
	entries := ParseRawLog(`[{"msg_index":0,"events":[]}]`)
	require.Len(t, entries, 1)
	require.Equal(t, 0, entries[0].MsgIndex)
}

func TestAppendTxLevelEntry_AppendsWithNegativeOneIndex(t *testing.T) {
	entries := AppendTxLevelEntry(nil, []Event{{Type: "tx"}})
	require.Len(t, entries, 1)
	require.Equal(t, -1, entries[0].MsgIndex)
}

func TestAppendTxLevelEntry_NoOpOnEmptyTxEvents(t *testing.T) {
	entries := AppendTxLevelEntry([]LogEntry{{MsgIndex: 0}}, nil)
	require.Len(t, entries, 1)
}
