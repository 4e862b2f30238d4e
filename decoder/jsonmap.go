package decoder

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonObjectToMap decodes a protojson-rendered message into a generic
// map, using json.Number so protojson's deliberate string-encoding of
// 64-bit integers and any bare numeric literals survive without being
// rounded through float64.
func jsonObjectToMap(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decoder: expected JSON object, got %T", v)
	}
	return m, nil
}
