// Package qs converts nested query configurations to URL query strings using
// bracket-path keys (parent[child]=v, list[]=v) and back, and sanitizes
// incoming query values against a typed schema.
package qs

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// maxDepth bounds recursion into nested maps and slices. Values nested deeper
// are dropped.
const maxDepth = 32

// pair is one encoded key/value in emission order.
type pair struct {
	key   string
	value string
}

// Encode serializes config into a query string without a leading "?".
//
// Absent keys and empty strings are omitted. nil becomes an empty value,
// booleans become "1"/"0", slices emit one key[]=item per element and maps
// recurse with bracket-path keys. Keys are emitted in sorted order at each
// level. Slice elements that are themselves maps or slices are encoded
// positionally: key[i][child]=v and key[i][]=v.
func Encode(config map[string]any) string {
	var pairs []pair
	encodeMap(reflect.ValueOf(config), "", 0, &pairs)
	return join(pairs)
}

// Values is like Encode but returns url.Values.
func Values(config map[string]any) url.Values {
	var pairs []pair
	encodeMap(reflect.ValueOf(config), "", 0, &pairs)
	out := url.Values{}
	for _, p := range pairs {
		out.Add(p.key, p.value)
	}
	return out
}

func join(pairs []pair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

func encodeMap(m reflect.Value, parent string, depth int, out *[]pair) {
	if depth > maxDepth || !m.IsValid() || m.IsNil() {
		return
	}
	keys := make([]string, 0, m.Len())
	byKey := make(map[string]reflect.Value, m.Len())
	iter := m.MapRange()
	for iter.Next() {
		k := fmt.Sprint(iter.Key().Interface())
		keys = append(keys, k)
		byKey[k] = iter.Value()
	}
	sort.Strings(keys)
	for _, k := range keys {
		key := k
		if parent != "" {
			key = parent + "[" + k + "]"
		}
		encodeValue(byKey[k], key, depth+1, out)
	}
}

func encodeValue(v reflect.Value, key string, depth int, out *[]pair) {
	if depth > maxDepth {
		return
	}
	v, isNil := indirect(v)
	if isNil {
		*out = append(*out, pair{key, ""})
		return
	}

	if s, ok := scalar(v); ok {
		if v.Kind() == reflect.String && s == "" {
			return
		}
		*out = append(*out, pair{key, s})
		return
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			encodeElement(v.Index(i), key, i, depth+1, out)
		}
	case reflect.Map:
		encodeMap(v, key, depth, out)
	case reflect.Struct:
		if m, ok := structToMap(v); ok {
			encodeMap(reflect.ValueOf(m), key, depth, out)
		}
	}
}

func encodeElement(v reflect.Value, key string, idx, depth int, out *[]pair) {
	if depth > maxDepth {
		return
	}
	v, isNil := indirect(v)
	if isNil {
		*out = append(*out, pair{key + "[]", ""})
		return
	}
	if s, ok := scalar(v); ok {
		*out = append(*out, pair{key + "[]", s})
		return
	}
	encodeValue(v, key+"["+strconv.Itoa(idx)+"]", depth, out)
}

// indirect unwraps interfaces and pointers. The second result is true when the
// value is nil at any level.
func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return v, true
		}
		if v.Kind() == reflect.Pointer {
			if _, ok := v.Interface().(fmt.Stringer); ok {
				return v, false
			}
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return v, true
	}
	if (v.Kind() == reflect.Map || v.Kind() == reflect.Slice) && v.IsNil() {
		return v, true
	}
	return v, false
}

// scalar renders leaf values. time.Time uses RFC 3339 and any fmt.Stringer
// (decimal.Decimal, uuid.UUID) uses its String method.
func scalar(v reflect.Value) (string, bool) {
	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case time.Time:
			return x.Format(time.RFC3339), true
		case fmt.Stringer:
			return x.String(), true
		}
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		if v.Bool() {
			return "1", true
		}
		return "0", true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	}
	return "", false
}

// structToMap flattens a struct through its JSON encoding so json tags and
// omitempty decide the keys.
func structToMap(v reflect.Value) (map[string]any, bool) {
	if !v.CanInterface() {
		return nil, false
	}
	data, err := json.Marshal(v.Interface())
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return m, true
}
