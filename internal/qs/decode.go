package qs

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Decode parses a query string produced by Encode back into a nested
// configuration. All leaves are strings; key[]=v collects into []any, and maps
// whose keys are exactly 0..n-1 become slices.
func Decode(query string) (map[string]any, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return nil, err
	}
	return FromValues(values), nil
}

// FromValues builds a nested configuration from parsed query values.
func FromValues(values url.Values) map[string]any {
	root := map[string]any{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		path, appendLeaf := splitKey(k)
		for _, v := range values[k] {
			insert(root, path, appendLeaf, v)
		}
	}
	for k, child := range root {
		root[k] = normalize(child)
	}
	return root
}

// splitKey turns "a[b][c][]" into ["a","b","c"] with appendLeaf set.
func splitKey(key string) ([]string, bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return []string{key}, false
	}
	path := []string{key[:open]}
	rest := key[open:]
	appendLeaf := false
	for len(rest) > 0 && rest[0] == '[' {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			// Unbalanced brackets: keep the remainder verbatim.
			path[len(path)-1] += rest
			break
		}
		seg := rest[1:end]
		rest = rest[end+1:]
		if seg == "" {
			appendLeaf = true
			break
		}
		path = append(path, seg)
	}
	return path, appendLeaf
}

func insert(node map[string]any, path []string, appendLeaf bool, value string) {
	for _, seg := range path[:len(path)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[seg] = child
		}
		node = child
	}
	last := path[len(path)-1]
	if appendLeaf {
		list, _ := node[last].([]any)
		node[last] = append(list, value)
		return
	}
	node[last] = value
}

func normalize(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		m[k] = normalize(child)
	}
	if len(m) == 0 {
		return m
	}
	list := make([]any, len(m))
	for k, child := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(m) || strconv.Itoa(i) != k {
			return m
		}
		list[i] = child
	}
	return list
}
