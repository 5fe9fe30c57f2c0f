package qs

import (
	"net/url"
	"slices"
	"strconv"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

// RuleType selects how a raw query value is interpreted.
type RuleType string

// Rule types.
const (
	TypeString  RuleType = "string"
	TypeNumber  RuleType = "number"
	TypeBoolean RuleType = "boolean"
	TypeArray   RuleType = "array"
)

// Rule describes one accepted query parameter. When the raw value is missing,
// unparseable or rejected by Validate, Default is used.
type Rule struct {
	Type     RuleType
	Default  any
	Validate func(any) bool
}

// Schema maps parameter names to rules.
type Schema map[string]Rule

// Sanitize reads every schema key from values and returns typed results:
// string, float64, bool or []string depending on the rule type.
func Sanitize(values url.Values, schema Schema) map[string]any {
	out := make(map[string]any, len(schema))
	for key, rule := range schema {
		var value any
		raw, present := first(values, key)

		switch rule.Type {
		case TypeArray:
			if arr := values[key+"[]"]; len(arr) > 0 {
				value = slices.Clone(arr)
			} else {
				value = rule.Default
			}
		case TypeNumber:
			n, err := strconv.ParseFloat(raw, 64)
			if present && err == nil {
				value = n
			} else {
				value = rule.Default
			}
		case TypeBoolean:
			switch raw {
			case "true", "1":
				value = true
			case "false", "0":
				value = false
			default:
				value = rule.Default
			}
		default:
			if present {
				value = raw
			} else {
				value = rule.Default
			}
		}

		if rule.Validate != nil && !rule.Validate(value) {
			value = rule.Default
		}
		out[key] = value
	}
	return out
}

func first(values url.Values, key string) (string, bool) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Pagination is the standard list query: free-text search, 1-based page,
// page size, sort field and direction.
type Pagination struct {
	Search    string
	Page      int
	Limit     int
	Sort      string
	Direction string
}

// DefaultRowsPerPage are the page sizes accepted when none are given.
var DefaultRowsPerPage = []int{10, 25, 50}

// DefaultSortOptions are the sort fields accepted when none are given.
var DefaultSortOptions = []string{"id", "name"}

// PaginationSchema returns the schema used to sanitize list queries.
func PaginationSchema(rowsPerPage []int, sortOptions []string) Schema {
	if len(rowsPerPage) == 0 {
		rowsPerPage = DefaultRowsPerPage
	}
	if len(sortOptions) == 0 {
		sortOptions = DefaultSortOptions
	}
	return Schema{
		"search": {Type: TypeString, Default: ""},
		"page": {
			Type:    TypeNumber,
			Default: float64(1),
			Validate: func(v any) bool {
				n, ok := v.(float64)
				return ok && n > 0 && n == float64(int(n))
			},
		},
		"limit": {
			Type:    TypeNumber,
			Default: float64(10),
			Validate: func(v any) bool {
				n, ok := v.(float64)
				return ok && slices.Contains(rowsPerPage, int(n)) && n == float64(int(n))
			},
		},
		"sort": {
			Type:    TypeString,
			Default: "id",
			Validate: func(v any) bool {
				s, ok := v.(string)
				return ok && slices.Contains(sortOptions, s)
			},
		},
		"direction": {
			Type:    TypeString,
			Default: types.SortDesc,
			Validate: func(v any) bool {
				return v == types.SortAsc || v == types.SortDesc
			},
		},
	}
}

// SanitizePagination applies PaginationSchema to values.
func SanitizePagination(values url.Values, rowsPerPage []int, sortOptions []string) Pagination {
	m := Sanitize(values, PaginationSchema(rowsPerPage, sortOptions))
	return Pagination{
		Search:    m["search"].(string),
		Page:      int(m["page"].(float64)),
		Limit:     int(m["limit"].(float64)),
		Sort:      m["sort"].(string),
		Direction: m["direction"].(string),
	}
}

// Config returns the pagination as a query configuration for Encode.
func (p Pagination) Config() map[string]any {
	return map[string]any{
		"search":    p.Search,
		"page":      p.Page,
		"limit":     p.Limit,
		"sort":      p.Sort,
		"direction": p.Direction,
	}
}

// Offset returns the zero-based index of the first row on the page.
func (p Pagination) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
