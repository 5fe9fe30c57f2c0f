// Package table turns rows and a declarative column configuration into a
// view model of header and body cells, and renders that model as aligned
// terminal text. Rendering never fails on missing or null values; absent
// data becomes a placeholder.
package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidColumn is returned for a column whose kind and renderer disagree.
var ErrInvalidColumn = errors.New("invalid column")

// Kind selects how a column renders its value.
type Kind string

// Column kinds.
const (
	KindString   Kind = "string"
	KindFile     Kind = "file"
	KindURL      Kind = "url"
	KindDate     Kind = "date"
	KindTime     Kind = "time"
	KindDateTime Kind = "datetime"
	KindImage    Kind = "image"
	KindAvatar   Kind = "avatar"
	KindNumber   Kind = "number"
	KindCurrency Kind = "currency"
	KindBoolean  Kind = "boolean"
	KindCustom   Kind = "custom"
)

// numeric reports whether cells of this kind are right-aligned.
func (k Kind) numeric() bool {
	return k == KindNumber || k == KindCurrency
}

// Column describes how one column extracts and shows a value from a row.
type Column[T any] struct {
	Kind Kind
	// Key is a dot path into the row ("store.name"). Struct fields match by
	// JSON name first, then by Go field name.
	Key string
	// Accessor extracts the value with compile-time typing and takes
	// precedence over Key.
	Accessor func(row T) any
	// Header is the column title; it defaults to the title-cased last
	// segment of Key.
	Header string
	// Label derives the display label from the raw value.
	Label func(value any, row T) string
	// Render produces the cell text for KindCustom columns only.
	Render func(value any, row T) string
	// Sortable enables the sort affordance. SortKey defaults to Key.
	Sortable bool
	SortKey  string
}

// Value extracts the raw value of the column from row.
func (c Column[T]) Value(row T) any {
	if c.Accessor != nil {
		return c.Accessor(row)
	}
	if c.Key == "" {
		return nil
	}
	return Lookup(row, c.Key)
}

// Title returns the header label.
func (c Column[T]) Title() string {
	if c.Header != "" {
		return c.Header
	}
	key := c.Key
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	key = strings.TrimLeft(key, "_")
	return cases.Title(language.English).String(strcase.ToDelimited(key, ' '))
}

// EffectiveSortKey returns the key reported to the sort-change callback.
func (c Column[T]) EffectiveSortKey() string {
	if c.SortKey != "" {
		return c.SortKey
	}
	return c.Key
}

// Validate checks that the column is a well-formed variant.
func (c Column[T]) Validate() error {
	kind := c.Kind
	if kind == "" {
		kind = KindString
	}
	switch kind {
	case KindCustom:
		if c.Render == nil {
			return fmt.Errorf("%w: custom column %q has no renderer", ErrInvalidColumn, c.Title())
		}
		return nil
	case KindString, KindFile, KindURL, KindDate, KindTime, KindDateTime,
		KindImage, KindAvatar, KindNumber, KindCurrency, KindBoolean:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidColumn, kind)
	}
	if c.Render != nil {
		return fmt.Errorf("%w: %s column %q cannot have a renderer", ErrInvalidColumn, kind, c.Title())
	}
	if c.Key == "" && c.Accessor == nil {
		return fmt.Errorf("%w: %s column needs a key or accessor", ErrInvalidColumn, kind)
	}
	if c.Sortable && c.EffectiveSortKey() == "" {
		return fmt.Errorf("%w: sortable column %q needs a sort key", ErrInvalidColumn, c.Title())
	}
	return nil
}

// Config is a validated table configuration.
type Config[T any] struct {
	Columns []Column[T]
	// UniqueField is the dot path of the row identity used for selection.
	// Rows are identified by index when it is empty.
	UniqueField string
	// ShowNumber adds an ordinal column.
	ShowNumber bool
}

// NewConfig validates columns and returns a Config.
func NewConfig[T any](uniqueField string, columns ...Column[T]) (Config[T], error) {
	for i, col := range columns {
		if err := col.Validate(); err != nil {
			return Config[T]{}, fmt.Errorf("column %d: %w", i, err)
		}
	}
	return Config[T]{Columns: columns, UniqueField: uniqueField}, nil
}

// Text returns a string column.
func Text[T any](key, header string) Column[T] {
	return Column[T]{Kind: KindString, Key: key, Header: header}
}

// Currency returns a currency column.
func Currency[T any](key, header string) Column[T] {
	return Column[T]{Kind: KindCurrency, Key: key, Header: header}
}

// Number returns a number column.
func Number[T any](key, header string) Column[T] {
	return Column[T]{Kind: KindNumber, Key: key, Header: header}
}

// Date returns a date column.
func Date[T any](key, header string) Column[T] {
	return Column[T]{Kind: KindDate, Key: key, Header: header}
}

// Custom returns a custom column rendered by fn.
func Custom[T any](key, header string, fn func(value any, row T) string) Column[T] {
	return Column[T]{Kind: KindCustom, Key: key, Header: header, Render: fn}
}
