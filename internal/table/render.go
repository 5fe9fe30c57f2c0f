package table

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// SkeletonRows is the number of placeholder rows shown while loading.
const SkeletonRows = 10

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// EmptyMessage is shown when there are no rows.
const EmptyMessage = "No Data"

// ActionHeader labels the per-row action column.
const ActionHeader = "Action"

// NumberHeader labels the ordinal column.
const NumberHeader = "No"

// Align is a cell's horizontal alignment.
type Align int

// Alignments.
const (
	AlignLeft Align = iota
	AlignRight
)

// Icon is a glyph shown in place of, or next to, a cell's text.
type Icon int

// Icons.
const (
	IconNone Icon = iota
	IconCheck
	IconCross
	IconFile
	IconNoFile
)

// CheckState is a checkbox state.
type CheckState int

// Checkbox states.
const (
	Unchecked CheckState = iota
	Indeterminate
	Checked
)

// Props is everything Render needs.
type Props[T any] struct {
	Rows    []T
	Config  Config[T]
	SortBy  string
	Sort    string
	Loading bool
	// Selected holds the unique-field values of selected rows. A nil
	// Selected disables the selection column.
	Selected []any
	// Page and Limit number the rows when Config.ShowNumber is set.
	Page  int
	Limit int

	OnCheckAll   func(checked bool)
	OnCheck      func(id any)
	OnChangeSort func(sortKey string)
	// Action renders the per-row action cell. Nil hides the column.
	Action func(row T, idx int) string

	Format *Formatter
}

// Header is one header cell.
type Header struct {
	Label     string
	Align     Align
	Sortable  bool
	SortKey   string
	Active    bool
	Direction string
}

// Cell is one rendered body cell.
type Cell struct {
	// Text is the display content.
	Text string
	// Label is the full text shown on hover when Text is truncated.
	Label    string
	Align    Align
	Icon     Icon
	Href     string
	Image    string
	Skeleton bool
}

// Row is one body row.
type Row struct {
	Key      any
	Number   int
	Selected bool
	Skeleton bool
	Cells    []Cell
	Action   string
}

// View is the rendered table.
type View struct {
	Selectable     bool
	SelectAll      CheckState
	SelectDisabled bool
	Numbered       bool
	HasAction      bool
	Headers        []Header
	Rows           []Row
	// Empty is set when the body is the single "No Data" row.
	Empty bool

	sortKeys     []string
	keys         []any
	onCheckAll   func(bool)
	onCheck      func(any)
	onChangeSort func(string)
}

// Render builds the view for props.
func Render[T any](p Props[T]) *View {
	f := p.Format
	if f == nil {
		f = DefaultFormatter()
	}
	cols := p.Config.Columns

	v := &View{
		Selectable:     p.Selected != nil,
		SelectDisabled: p.Loading,
		Numbered:       p.Config.ShowNumber,
		HasAction:      p.Action != nil && !p.Loading,
		onCheckAll:     p.OnCheckAll,
		onCheck:        p.OnCheck,
		onChangeSort:   p.OnChangeSort,
	}

	for _, col := range cols {
		h := Header{Label: col.Title(), Sortable: col.Sortable}
		if col.Kind.numeric() {
			h.Align = AlignRight
		}
		if col.Sortable {
			h.SortKey = col.EffectiveSortKey()
			h.Active = p.SortBy == h.SortKey
			h.Direction = Asc
			if h.Active && p.Sort == Desc {
				h.Direction = Desc
			}
		}
		v.Headers = append(v.Headers, h)
		v.sortKeys = append(v.sortKeys, h.SortKey)
	}

	if p.Loading {
		for i := 0; i < SkeletonRows; i++ {
			row := Row{Skeleton: true, Cells: make([]Cell, len(cols))}
			for j, col := range cols {
				row.Cells[j] = Cell{Skeleton: true}
				if col.Kind.numeric() {
					row.Cells[j].Align = AlignRight
				}
			}
			v.Rows = append(v.Rows, row)
		}
		return v
	}

	if len(p.Rows) == 0 {
		v.Empty = true
		return v
	}

	selected := make(map[string]bool, len(p.Selected))
	for _, id := range p.Selected {
		selected[selectionKey(id)] = true
	}

	selectedCount := 0
	for idx, r := range p.Rows {
		key := rowKey(r, idx, p.Config.UniqueField)
		row := Row{
			Key:      key,
			Selected: selected[selectionKey(key)],
			Number:   ordinal(p.Page, p.Limit, idx),
			Cells:    make([]Cell, len(cols)),
		}
		if row.Selected {
			selectedCount++
		}
		for j, col := range cols {
			row.Cells[j] = renderCell(f, col, r)
		}
		if v.HasAction {
			row.Action = p.Action(r, idx)
		}
		v.Rows = append(v.Rows, row)
		v.keys = append(v.keys, key)
	}

	switch {
	case selectedCount == len(p.Rows):
		v.SelectAll = Checked
	case selectedCount > 0:
		v.SelectAll = Indeterminate
	default:
		v.SelectAll = Unchecked
	}
	return v
}

// ClickSort fires the sort-change callback for the column at index col.
// Columns without a sort affordance are ignored.
func (v *View) ClickSort(col int) {
	if col < 0 || col >= len(v.Headers) || !v.Headers[col].Sortable || v.onChangeSort == nil {
		return
	}
	v.onChangeSort(v.sortKeys[col])
}

// CheckAll fires the select-all callback with checked.
func (v *View) CheckAll(checked bool) {
	if !v.Selectable || v.SelectDisabled || v.onCheckAll == nil {
		return
	}
	v.onCheckAll(checked)
}

// Check fires the row-toggle callback for the row at index row.
func (v *View) Check(row int) {
	if !v.Selectable || row < 0 || row >= len(v.keys) || v.onCheck == nil {
		return
	}
	v.onCheck(v.keys[row])
}

func rowKey[T any](row T, idx int, uniqueField string) any {
	if uniqueField == "" {
		return idx
	}
	return Lookup(row, uniqueField)
}

// selectionKey compares numeric ids by value, so an int selection matches
// the float64 id of a JSON-decoded row.
func selectionKey(id any) string {
	switch id.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		if x, ok := toFloat(id); ok {
			return "number:" + strconv.FormatFloat(x, 'f', -1, 64)
		}
	}
	return fmt.Sprintf("%T:%v", id, id)
}

func ordinal(page, limit, idx int) int {
	if page < 1 || limit < 1 {
		return idx + 1
	}
	return (page-1)*limit + idx + 1
}

func renderCell[T any](f *Formatter, col Column[T], row T) Cell {
	raw := col.Value(row)

	label := Stringify(raw)
	if col.Label != nil {
		label = col.Label(raw, row)
	}

	c := Cell{Label: label}
	if col.Kind.numeric() {
		c.Align = AlignRight
	}

	switch col.Kind {
	case KindCustom:
		if col.Render != nil {
			c.Text = col.Render(raw, row)
		}
	case KindFile:
		name := FileName(Stringify(raw))
		c.Icon = IconNoFile
		if name != "" {
			c.Icon = IconFile
		}
		c.Label = name
		c.Text = name
	case KindURL:
		c.Href = Href(Stringify(raw))
		c.Text = label
	case KindDate:
		c.Text = f.Date(raw)
	case KindTime:
		c.Text = f.Time(raw)
	case KindDateTime:
		c.Text = f.DateTime(raw)
	case KindImage:
		if src := Stringify(raw); src != "" {
			c.Image = f.URL(src)
			c.Text = c.Image
		}
	case KindAvatar:
		if src := Stringify(raw); src != "" {
			c.Image = f.URL(src)
		}
		c.Text = label
	case KindNumber:
		c.Text = f.Number(raw)
	case KindCurrency:
		c.Text = f.Currency(raw)
	case KindBoolean:
		c.Icon = IconCross
		if truthy(raw) {
			c.Icon = IconCheck
		}
		c.Label = ""
		c.Text = ""
		return c
	default:
		c.Text = label
	}

	if c.Text == "" {
		c.Text = Placeholder
	}
	return c
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "0" && x != "false"
	default:
		f, ok := toFloat(v)
		if ok {
			return f != 0
		}
		return true
	}
}
