package table

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatterCurrency(t *testing.T) {
	f := DefaultFormatter()
	tests := []struct {
		in   any
		want string
	}{
		{in: 150000, want: "Rp\u00a0150.000"},
		{in: decimal.NewFromInt(1250000), want: "Rp\u00a01.250.000"},
		{in: 999.6, want: "Rp\u00a01.000"},
		{in: json.Number("0"), want: "Rp\u00a00"},
		{in: -5000, want: "-Rp\u00a05.000"},
		{in: "25000", want: "Rp\u00a025.000"},
		{in: nil, want: Placeholder},
		{in: "abc", want: Placeholder},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Currency(tt.in), "%v", tt.in)
	}
}

func TestFormatterNumber(t *testing.T) {
	f := DefaultFormatter()
	assert.Equal(t, "150.000", f.Number(150000))
	assert.Equal(t, "12,5", f.Number(12.5))
	assert.Equal(t, Placeholder, f.Number(nil))
}

func TestNewFormatterRejectsBadInput(t *testing.T) {
	_, err := NewFormatter("not a locale!", "IDR", "")
	assert.Error(t, err)
	_, err = NewFormatter("en-US", "XXXX", "")
	assert.Error(t, err)

	f, err := NewFormatter("en-US", "USD", "")
	require.NoError(t, err)
	assert.Equal(t, "$\u00a01,500", f.Currency(1500))
}

func TestFormatterCurrencySymbolFollowsLocale(t *testing.T) {
	tests := []struct {
		locale, code string
		want         string
	}{
		{locale: "en-US", code: "EUR", want: "€\u00a01,500"},
		{locale: "id-ID", code: "USD", want: "US$\u00a01.500"},
		{locale: "en-US", code: "JPY", want: "¥\u00a01,500"},
	}
	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.code, func(t *testing.T) {
			f, err := NewFormatter(tt.locale, tt.code, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Currency(1500))
		})
	}
}

func TestFormatterDates(t *testing.T) {
	f, err := NewFormatter("en-US", "USD", "")
	require.NoError(t, err)
	f.Location = time.UTC

	assert.Equal(t, "January 2, 2026", f.Date("2026-01-02T10:30:00Z"))
	assert.Equal(t, "January 2, 2026", f.Date("2026-01-02"))
	assert.Equal(t, "10:30", f.Time("2026-01-02T10:30:00Z"))
	assert.Equal(t, "01/02/2026, 10:30", f.DateTime("2026-01-02T10:30:00Z"))
	assert.Equal(t, "January 1, 1970", f.Date(0))
	assert.Equal(t, Placeholder, f.Date("yesterday"))
	assert.Equal(t, Placeholder, f.Date(time.Time{}))
}

func TestFormatterDatesFollowLocale(t *testing.T) {
	at := "2026-03-05T14:07:00Z"
	tests := []struct {
		locale                string
		date, clock, dateTime string
	}{
		{locale: "id-ID", date: "5 Maret 2026", clock: "14.07", dateTime: "05/03/2026, 14.07"},
		{locale: "de-DE", date: "5. März 2026", clock: "14:07", dateTime: "05.03.2026, 14:07"},
		{locale: "fr-FR", date: "5 mars 2026", clock: "14:07", dateTime: "05/03/2026 14:07"},
		{locale: "en-GB", date: "5 March 2026", clock: "14:07", dateTime: "05/03/2026, 14:07"},
		{locale: "ja-JP", date: "March 5, 2026", clock: "14:07", dateTime: "03/05/2026, 14:07"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			f, err := NewFormatter(tt.locale, "IDR", "")
			require.NoError(t, err)
			f.Location = time.UTC
			assert.Equal(t, tt.date, f.Date(at))
			assert.Equal(t, tt.clock, f.Time(at))
			assert.Equal(t, tt.dateTime, f.DateTime(at))
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "invoice.pdf", FileName("/uploads/invoice.pdf"))
	assert.Equal(t, "invoice.pdf", FileName("https://cdn.example.com/a/invoice.pdf?x=1"))
	assert.Equal(t, "plain.txt", FileName("plain.txt"))
	assert.Equal(t, "", FileName(""))
}

func TestHref(t *testing.T) {
	assert.Equal(t, "https://example.com", Href("example.com"))
	assert.Equal(t, "http://example.com", Href("http://example.com"))
	assert.Equal(t, "", Href(""))
}
