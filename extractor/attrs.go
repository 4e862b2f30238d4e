package extractor

import "chain-indexer/normalize"

func attrValue(attrs []normalize.Attribute, key string) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func firstAttrValue(attrs []normalize.Attribute, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := attrValue(attrs, k); ok {
			return v, true
		}
	}
	return "", false
}

// firstMsgField returns the first of fieldNames present (and non-empty)
// as a string value in msg.
func firstMsgField(msg map[string]any, fieldNames ...string) (string, bool) {
	for _, name := range fieldNames {
		if v, ok := msg[name]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}
