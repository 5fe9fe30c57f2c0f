package table

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

// DefaultMaxWidth bounds a cell's display width in runes.
const DefaultMaxWidth = 40

const (
	skeletonText = "░░░░░░░░"
	ellipsis     = "…"
)

// Truncate shortens s to at most width runes, ending with an ellipsis when
// cut. It reports whether s was cut.
func Truncate(s string, width int) (string, bool) {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s, false
	}
	if width == 1 {
		return ellipsis, true
	}
	runes := []rune(s)
	return string(runes[:width-1]) + ellipsis, true
}

// WriteText renders the view as aligned columns. Cells longer than maxWidth
// runes are truncated; maxWidth <= 0 selects DefaultMaxWidth.
func (v *View) WriteText(out io.Writer, maxWidth int) error {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}

	var lines [][]string
	var aligns []Align

	header := []string{}
	if v.Selectable {
		header = append(header, checkbox(v.SelectAll))
		aligns = append(aligns, AlignLeft)
	}
	if v.Numbered {
		header = append(header, strings.ToUpper(NumberHeader))
		aligns = append(aligns, AlignRight)
	}
	for _, h := range v.Headers {
		label, _ := Truncate(strings.ToUpper(h.Label), maxWidth)
		if h.Active {
			label += " " + arrow(h.Direction)
		}
		header = append(header, label)
		aligns = append(aligns, h.Align)
	}
	if v.HasAction {
		header = append(header, strings.ToUpper(ActionHeader))
		aligns = append(aligns, AlignLeft)
	}
	lines = append(lines, header)

	underline := make([]string, len(header))
	for i, h := range header {
		underline[i] = strings.Repeat("-", utf8.RuneCountInString(h))
	}
	lines = append(lines, underline)

	for _, row := range v.Rows {
		line := []string{}
		if v.Selectable {
			state := Unchecked
			if row.Selected {
				state = Checked
			}
			line = append(line, checkbox(state))
		}
		if v.Numbered {
			if row.Skeleton {
				line = append(line, "░░")
			} else {
				line = append(line, fmt.Sprint(row.Number))
			}
		}
		for _, c := range row.Cells {
			line = append(line, cellText(c, maxWidth))
		}
		if v.HasAction {
			text, _ := Truncate(row.Action, maxWidth)
			line = append(line, text)
		}
		lines = append(lines, line)
	}

	alignRight(lines, aligns)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, line := range lines {
		fmt.Fprintln(w, strings.Join(line, "\t"))
	}
	if v.Empty {
		fmt.Fprintln(w, EmptyMessage)
	}
	return w.Flush()
}

// String renders the view with the default width.
func (v *View) String() string {
	var sb strings.Builder
	_ = v.WriteText(&sb, 0)
	return sb.String()
}

func cellText(c Cell, maxWidth int) string {
	if c.Skeleton {
		return skeletonText
	}
	text := c.Text
	switch c.Icon {
	case IconCheck:
		text = "✓"
	case IconCross:
		text = "✗"
	}
	text, _ = Truncate(text, maxWidth)
	return text
}

// alignRight left-pads right-aligned columns to their widest cell.
func alignRight(lines [][]string, aligns []Align) {
	for col, align := range aligns {
		if align != AlignRight {
			continue
		}
		width := 0
		for _, line := range lines {
			if col < len(line) {
				width = max(width, utf8.RuneCountInString(line[col]))
			}
		}
		for _, line := range lines {
			if col < len(line) {
				line[col] = strings.Repeat(" ", width-utf8.RuneCountInString(line[col])) + line[col]
			}
		}
	}
}

func checkbox(s CheckState) string {
	switch s {
	case Checked:
		return "[x]"
	case Indeterminate:
		return "[-]"
	default:
		return "[ ]"
	}
}

func arrow(direction string) string {
	if direction == Desc {
		return "▼"
	}
	return "▲"
}
