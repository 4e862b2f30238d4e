// Package normalize implements ABCI event and JSON-shape normalization:
// canonical base64 attribute decoding, deep key-case conversion that
// leaves `@`-prefixed keys untouched, and raw_log parsing.
package normalize

import (
	"github.com/iancoleman/strcase"
)

// CaseFn converts a single key from whatever case it arrives in.
type CaseFn func(string) string

// SnakeCase and CamelCase are the two case modes the case_mode config
// key selects between.
func SnakeCase(s string) string { return strcase.ToSnake(s) }
func CamelCase(s string) string { return strcase.ToLowerCamel(s) }

// DeepConvert walks an arbitrary decoded JSON-ish value (map, slice, or
// scalar) and renames every map key via fn, except keys that start with
// "@" (protobuf type markers), which are never renamed. Values are left
// untouched.
func DeepConvert(v any, fn CaseFn) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			newKey := k
			if len(k) == 0 || k[0] != '@' {
				newKey = fn(k)
			}
			out[newKey] = DeepConvert(child, fn)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = DeepConvert(child, fn)
		}
		return out
	default:
		return v
	}
}

// ForMode returns the DeepConvert closure matching a configured case
// mode string ("snake" or "camel").
func ForMode(mode string) func(map[string]any) map[string]any {
	fn := SnakeCase
	if mode == "camel" {
		fn = CamelCase
	}
	return func(m map[string]any) map[string]any {
		converted := DeepConvert(m, fn)
		asMap, _ := converted.(map[string]any)
		if asMap == nil {
			return map[string]any{}
		}
		return asMap
	}
}
