package normalize

import "encoding/json"

// Attribute is a single ABCI event attribute after base64 normalization.
type Attribute struct {
	Key   string
	Value string
	Index bool
}

// Event is a single ABCI event after attribute normalization.
type Event struct {
	Type       string
	Attributes []Attribute
}

// RawAttribute mirrors the wire shape of one ABCI event attribute,
// before base64 normalization. Index is a pointer because an absent
// field defaults to true.
type RawAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Index *bool  `json:"index"`
}

type rawEvent struct {
	Type       string         `json:"type"`
	Attributes []RawAttribute `json:"attributes"`
}

// NormalizeEvent decodes base64 attribute keys/values
// and defaults a missing `index` to true.
func NormalizeEvent(eventType string, attrs []RawAttribute) Event {
	out := Event{Type: eventType, Attributes: make([]Attribute, 0, len(attrs))}
	for _, a := range attrs {
		key, _ := DecodeAttrValue(a.Key)
		value, _ := DecodeAttrValue(a.Value)
		index := true
		if a.Index != nil {
			index = *a.Index
		}
		out.Attributes = append(out.Attributes, Attribute{Key: key, Value: value, Index: index})
	}
	return out
}

// LogEntry is one element of a parsed raw_log array: the events
// attributed to a single message within the tx, or (msg_index == nil)
// the tx-level pseudo-entry.
type LogEntry struct {
	MsgIndex int // -1 for the tx-level pseudo-entry
	Events   []Event
}

type rawLogEntry struct {
	MsgIndex *int       `json:"msg_index"`
	Events   []rawEvent `json:"events"`
}

// ParseRawLog parses the per-tx raw_log JSON array. On parse failure
// it yields the empty list rather than an error, treating raw_log as
// best-effort diagnostic data; it is a pure function of its input.
func ParseRawLog(rawLog string) []LogEntry {
	if rawLog == "" {
		return nil
	}
	var entries []rawLogEntry
	if err := json.Unmarshal([]byte(rawLog), &entries); err != nil {
		return nil
	}
	out := make([]LogEntry, 0, len(entries))
	for _, e := range entries {
		idx := -1
		if e.MsgIndex != nil {
			idx = *e.MsgIndex
		}
		events := make([]Event, 0, len(e.Events))
		for _, ev := range e.Events {
			events = append(events, NormalizeEvent(ev.Type, ev.Attributes))
		}
		out = append(out, LogEntry{MsgIndex: idx, Events: events})
	}
	return out
}

// AppendTxLevelEntry appends the ABCI result's tx-level events as a
// pseudo-entry with msg_index = -1.
func AppendTxLevelEntry(entries []LogEntry, txEvents []Event) []LogEntry {
	if len(txEvents) == 0 {
		return entries
	}
	return append(entries, LogEntry{MsgIndex: -1, Events: txEvents})
}
