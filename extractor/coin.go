package extractor

import "regexp"

// coinPattern matches a single cosmos-sdk coin string, e.g. "123uatom"
// or "42ibc/ABC123".
var coinPattern = regexp.MustCompile(`^(\d+)([a-zA-Z/][\w/:-]*)$`)

// Coin is a parsed amount+denom pair.
type Coin struct {
	Amount string
	Denom  string
}

// ParseCoin parses a single coin string. Returns ok=false for anything
// that doesn't match the amount-then-denom shape, including the empty
// string.
func ParseCoin(s string) (Coin, bool) {
	m := coinPattern.FindStringSubmatch(s)
	if m == nil {
		return Coin{}, false
	}
	return Coin{Amount: m[1], Denom: m[2]}, true
}
