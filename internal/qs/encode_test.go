package qs

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
		want   string
	}{
		{
			name:   "empty config",
			config: map[string]any{},
			want:   "",
		},
		{
			name:   "nil config",
			config: nil,
			want:   "",
		},
		{
			name:   "empty string dropped, nil kept empty, booleans as digits",
			config: map[string]any{"b": "", "c": nil, "d": true, "e": false},
			want:   "c=&d=1&e=0",
		},
		{
			name:   "nested map uses bracket path",
			config: map[string]any{"filter": map[string]any{"status": "paid"}},
			want:   "filter%5Bstatus%5D=paid",
		},
		{
			name:   "array repeats key with empty brackets",
			config: map[string]any{"tags": []string{"a", "b"}},
			want:   "tags%5B%5D=a&tags%5B%5D=b",
		},
		{
			name:   "numbers",
			config: map[string]any{"page": 2, "price": 12.5, "limit": uint(10)},
			want:   "limit=10&page=2&price=12.5",
		},
		{
			name:   "spaces and reserved characters are escaped",
			config: map[string]any{"search": "red & blue"},
			want:   "search=red+%26+blue",
		},
		{
			name:   "deeply nested map",
			config: map[string]any{"a": map[string]any{"b": map[string]any{"c": 1}}},
			want:   "a%5Bb%5D%5Bc%5D=1",
		},
		{
			name:   "array of maps is positional",
			config: map[string]any{"items": []any{map[string]any{"id": "x"}, map[string]any{"id": "y"}}},
			want:   "items%5B0%5D%5Bid%5D=x&items%5B1%5D%5Bid%5D=y",
		},
		{
			name:   "array of arrays",
			config: map[string]any{"m": []any{[]any{1, 2}}},
			want:   "m%5B0%5D%5B%5D=1&m%5B0%5D%5B%5D=2",
		},
		{
			name:   "empty strings inside arrays are kept",
			config: map[string]any{"t": []any{"", "x"}},
			want:   "t%5B%5D=&t%5B%5D=x",
		},
		{
			name:   "nil pointer is null",
			config: map[string]any{"p": (*int)(nil)},
			want:   "p=",
		},
		{
			name:   "stringer values",
			config: map[string]any{"min": decimal.RequireFromString("1500.50")},
			want:   "min=1500.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.config))
		})
	}
}

func TestEncodeTime(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "from=2026-03-01T10%3A00%3A00Z", Encode(map[string]any{"from": ts}))
}

func TestEncodeStruct(t *testing.T) {
	type filter struct {
		Status string `json:"status"`
		Store  string `json:"store,omitempty"`
	}
	got := Encode(map[string]any{"filter": filter{Status: "paid"}})
	assert.Equal(t, "filter%5Bstatus%5D=paid", got)
}

func TestEncodeDepthLimit(t *testing.T) {
	root := map[string]any{}
	node := root
	for i := 0; i < maxDepth+10; i++ {
		child := map[string]any{}
		node["n"] = child
		node = child
	}
	node["leaf"] = "x"

	// The leaf sits beyond the depth limit and is dropped instead of recursing forever.
	assert.Equal(t, "", Encode(root))
}

func TestValues(t *testing.T) {
	v := Values(map[string]any{"tags": []string{"a", "b"}, "q": "x"})
	assert.Equal(t, []string{"a", "b"}, v["tags[]"])
	assert.Equal(t, "x", v.Get("q"))
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
		want   map[string]any
	}{
		{
			name:   "flat scalars stringified",
			config: map[string]any{"page": 1, "search": "shoe", "active": true},
			want:   map[string]any{"page": "1", "search": "shoe", "active": "1"},
		},
		{
			name:   "nested and arrays",
			config: map[string]any{"filter": map[string]any{"status": "paid"}, "tags": []string{"a", "b"}},
			want:   map[string]any{"filter": map[string]any{"status": "paid"}, "tags": []any{"a", "b"}},
		},
		{
			name:   "array of maps",
			config: map[string]any{"items": []any{map[string]any{"id": "x"}, map[string]any{"id": "y"}}},
			want:   map[string]any{"items": []any{map[string]any{"id": "x"}, map[string]any{"id": "y"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Encode(tt.config))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeLeadingQuestionMark(t *testing.T) {
	got, err := Decode("?a=1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "1"}, got)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode("a=%zz")
	assert.Error(t, err)
}
