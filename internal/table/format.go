package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/mesh-intelligence/storefront/internal/fetch"
)

// Placeholder is shown for empty or unparseable values.
const Placeholder = "-"

// Date and time layouts for en-US, the fallback for locales without their
// own style: long date, 24-hour time, and two-digit numeric date-time.
const (
	DateLayout     = "January 2, 2006"
	TimeLayout     = "15:04"
	DateTimeLayout = "01/02/2006, 15:04"
)

// Defaults used by DefaultFormatter.
const (
	DefaultLocale   = "id-ID"
	DefaultCurrency = "IDR"
)

// dateStyle holds the layouts for one language. Months replaces the English
// month names Go writes for layouts that spell the month out.
type dateStyle struct {
	date     string
	time     string
	dateTime string
	months   [12]string
}

var enUS = dateStyle{date: DateLayout, time: TimeLayout, dateTime: DateTimeLayout}

// dateStyles is keyed by base language.
var dateStyles = map[language.Base]dateStyle{
	language.MustParseBase("id"): {
		date:     "2 January 2006",
		time:     "15.04",
		dateTime: "02/01/2006, 15.04",
		months: [12]string{"Januari", "Februari", "Maret", "April", "Mei", "Juni",
			"Juli", "Agustus", "September", "Oktober", "November", "Desember"},
	},
	language.MustParseBase("de"): {
		date:     "2. January 2006",
		time:     "15:04",
		dateTime: "02.01.2006, 15:04",
		months: [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni",
			"Juli", "August", "September", "Oktober", "November", "Dezember"},
	},
	language.MustParseBase("fr"): {
		date:     "2 January 2006",
		time:     "15:04",
		dateTime: "02/01/2006 15:04",
		months: [12]string{"janvier", "février", "mars", "avril", "mai", "juin",
			"juillet", "août", "septembre", "octobre", "novembre", "décembre"},
	},
}

// enDayFirst are English regions that write the day before the month.
var enDayFirst = map[language.Region]bool{
	language.MustParseRegion("GB"): true,
	language.MustParseRegion("AU"): true,
	language.MustParseRegion("NZ"): true,
	language.MustParseRegion("IE"): true,
	language.MustParseRegion("SG"): true,
}

func styleFor(tag language.Tag) dateStyle {
	base, _ := tag.Base()
	if style, ok := dateStyles[base]; ok {
		return style
	}
	if region, _ := tag.Region(); base.String() == "en" && enDayFirst[region] {
		return dateStyle{date: "2 January 2006", time: TimeLayout, dateTime: "02/01/2006, 15:04"}
	}
	return enUS
}

// Formatter formats numbers, currency amounts, dates, and asset URLs.
type Formatter struct {
	printer  *message.Printer
	currency currency.Unit
	dates    dateStyle
	// BaseURL prefixes relative image and avatar paths.
	BaseURL string
	// Location is used for date and time output; nil means the value's own zone.
	Location *time.Location
}

// NewFormatter creates a Formatter for a BCP 47 locale and an ISO 4217
// currency code.
func NewFormatter(locale, currencyCode, baseURL string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", currencyCode, err)
	}
	return &Formatter{
		printer:  message.NewPrinter(tag),
		currency: unit,
		dates:    styleFor(tag),
		BaseURL:  baseURL,
	}, nil
}

// DefaultFormatter formats for Indonesian Rupiah.
func DefaultFormatter() *Formatter {
	f, err := NewFormatter(DefaultLocale, DefaultCurrency, "")
	if err != nil {
		panic(err)
	}
	return f
}

// Number formats v with locale grouping and at most two fraction digits.
func (f *Formatter) Number(v any) string {
	x, ok := toFloat(v)
	if !ok {
		return Placeholder
	}
	return f.printer.Sprint(number.Decimal(x, number.MaxFractionDigits(2)))
}

// Currency formats v as a whole-unit amount with the currency symbol.
func (f *Formatter) Currency(v any) string {
	x, ok := toFloat(v)
	if !ok {
		return Placeholder
	}
	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}
	x = math.Round(x)
	symbol := f.printer.Sprint(currency.Symbol(f.currency))
	amount := f.printer.Sprint(number.Decimal(x, number.MaxFractionDigits(0)))
	return sign + symbol + "\u00a0" + amount
}

// Date formats v as a long date in the locale's style.
func (f *Formatter) Date(v any) string { return f.formatTime(v, f.dates.date) }

// Time formats v as a 24-hour time.
func (f *Formatter) Time(v any) string { return f.formatTime(v, f.dates.time) }

// DateTime formats v as a two-digit numeric date and time.
func (f *Formatter) DateTime(v any) string { return f.formatTime(v, f.dates.dateTime) }

func (f *Formatter) formatTime(v any, layout string) string {
	t, ok := toTime(v)
	if !ok {
		return Placeholder
	}
	if f.Location != nil {
		t = t.In(f.Location)
	}
	out := t.Format(layout)
	if name := f.dates.months[t.Month()-1]; name != "" && strings.Contains(layout, "January") {
		out = strings.Replace(out, t.Month().String(), name, 1)
	}
	return out
}

// URL resolves a possibly relative asset path against BaseURL.
func (f *Formatter) URL(path string) string {
	return fetch.ResolveURL(f.BaseURL, path)
}

// FileName returns the last path segment of a stored file path, without any
// query string.
func FileName(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	return path
}

// Href returns a link target, prefixing https:// when no scheme is present.
func Href(raw string) string {
	if raw == "" || strings.HasPrefix(raw, "http") {
		return raw
	}
	return "https://" + raw
}

// Stringify returns the plain string form of a raw value; nil is empty.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case decimal.Decimal:
		return x.InexactFloat64(), true
	case *decimal.Decimal:
		if x == nil {
			return 0, false
		}
		return x.InexactFloat64(), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		// Numbers are Unix milliseconds.
		if ms, ok := toFloat(v); ok {
			return time.UnixMilli(int64(ms)).UTC(), true
		}
		return time.Time{}, false
	}
}
