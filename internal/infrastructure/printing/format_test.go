package printing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFormatter_Money(t *testing.T) {
	f := newFormatter(language.AmericanEnglish, "$", "2006-01-02")

	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5", "$5.00"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"-42.1", "-$42.10"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, f.money(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatter_Number(t *testing.T) {
	f := newFormatter(language.AmericanEnglish, "$", "2006-01-02")

	assert.Equal(t, "2", f.number(decimal.RequireFromString("2.000")))
	assert.Equal(t, "2.5", f.number(decimal.RequireFromString("2.50")))
	assert.Equal(t, "1,500.25", f.number(decimal.RequireFromString("1500.25")))
	assert.Equal(t, "8.25%", f.percent(decimal.RequireFromString("8.250")))
}

func TestFormatter_Dates(t *testing.T) {
	f := newFormatter(language.AmericanEnglish, "$", "Jan 2, 2006")
	d := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "Mar 9, 2025", f.date(d))
	assert.Equal(t, "", f.date(time.Time{}))
	assert.Equal(t, "Mar 9, 2025", f.datePtr(&d))
	assert.Equal(t, "", f.datePtr(nil))
}

func TestFormatter_Labels(t *testing.T) {
	f := newFormatter(language.AmericanEnglish, "$", "2006-01-02")

	assert.Equal(t, "Partial", f.status("partial"))
	assert.Equal(t, "Bank Transfer", f.method("bank_transfer"))
	assert.Equal(t, []string{"line one", "line two"}, lines("line one\r\nline two\n"))
}
