package fetch

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
)

// Word boundaries for snake_case: a lower-case letter or digit followed by an
// upper-case letter, and the last capital of an acronym run. Digits never
// start a word, so "addressLine1" becomes "address_line1".
var (
	lowerUpper = regexp.MustCompile(`([a-z\d])([A-Z])`)
	acronymEnd = regexp.MustCompile(`([A-Z]+)([A-Z][a-z\d]+)`)
)

// Camelize converts a snake_case wire key to camelCase. Dotted paths
// ("items.0.product_id") are converted segment by segment. Leading
// underscores ("_id") and numeric segments are kept as they are.
func Camelize(key string) string {
	return convertKey(key, strcase.ToLowerCamel)
}

// Decamelize converts a camelCase key to snake_case with the same rules as
// Camelize. Existing underscores and digit runs are preserved, so keys
// round-trip through Camelize.
func Decamelize(key string) string {
	return convertKey(key, toSnake)
}

func toSnake(s string) string {
	s = lowerUpper.ReplaceAllString(s, "${1}_${2}")
	s = acronymEnd.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(s)
}

func convertKey(key string, fn func(string) string) string {
	if !strings.Contains(key, ".") {
		return convertSegment(key, fn)
	}
	parts := strings.Split(key, ".")
	for i, part := range parts {
		parts[i] = convertSegment(part, fn)
	}
	return strings.Join(parts, ".")
}

func convertSegment(seg string, fn func(string) string) string {
	if seg == "" {
		return seg
	}
	if _, err := strconv.ParseFloat(seg, 64); err == nil {
		return seg
	}
	trimmed := strings.TrimLeft(seg, "_")
	if trimmed == "" {
		return seg
	}
	prefix := seg[:len(seg)-len(trimmed)]
	return prefix + fn(trimmed)
}

// transformKeys rewrites every map key in a decoded JSON tree.
func transformKeys(v any, fn func(string) string) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, child := range x {
			out[fn(k)] = transformKeys(child, fn)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, child := range x {
			out[i] = transformKeys(child, fn)
		}
		return out
	default:
		return v
	}
}

// DecamelizeJSON re-encodes a JSON document with snake_case keys.
func DecamelizeJSON(data []byte) ([]byte, error) {
	return convertJSON(data, Decamelize)
}

// CamelizeJSON re-encodes a JSON document with camelCase keys.
func CamelizeJSON(data []byte) ([]byte, error) {
	return convertJSON(data, Camelize)
}

func convertJSON(data []byte, fn func(string) string) ([]byte, error) {
	tree, err := decodeTree(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(transformKeys(tree, fn))
}
