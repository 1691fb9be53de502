package printing

import (
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// formatter holds the locale-aware template helpers
type formatter struct {
	printer  *message.Printer
	title    cases.Caser
	currency string
	layout   string
}

func newFormatter(tag language.Tag, currency, dateLayout string) *formatter {
	return &formatter{
		printer:  message.NewPrinter(tag),
		title:    cases.Title(tag),
		currency: currency,
		layout:   dateLayout,
	}
}

func (f *formatter) funcMap() template.FuncMap {
	return template.FuncMap{
		"money":    f.money,
		"number":   f.number,
		"percent":  f.percent,
		"date":     f.date,
		"datePtr":  f.datePtr,
		"status":   f.status,
		"method":   f.method,
		"nonZero":  func(d decimal.Decimal) bool { return !d.IsZero() },
		"lines":    lines,
		"hasValue": func(s string) bool { return strings.TrimSpace(s) != "" },
	}
}

// money renders d with two decimals, grouping and the currency symbol. Negative amounts keep the sign in front.
func (f *formatter) money(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + f.currency + f.grouped(d, 2)
}

// number renders d with grouping and only the decimals it needs
func (f *formatter) number(d decimal.Decimal) string {
	_, frac, _ := strings.Cut(d.Abs().String(), ".")
	return f.grouped(d, int32(len(frac)))
}

func (f *formatter) percent(d decimal.Decimal) string {
	return f.number(d) + "%"
}

func (f *formatter) grouped(d decimal.Decimal, places int32) string {
	fixed := d.Abs().StringFixed(places)
	intPart, frac, _ := strings.Cut(fixed, ".")
	whole, _ := decimal.NewFromString(intPart)

	out := f.printer.Sprintf("%d", whole.IntPart())
	if d.IsNegative() {
		out = "-" + out
	}
	if frac != "" {
		out += "." + frac
	}
	return out
}

func (f *formatter) date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(f.layout)
}

func (f *formatter) datePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return f.date(*t)
}

// status turns a stored status such as "partial" into "Partial"
func (f *formatter) status(s string) string {
	return f.title.String(strings.ReplaceAll(s, "_", " "))
}

// method turns a payment method such as "bank_transfer" into "Bank Transfer"
func (f *formatter) method(s string) string {
	return f.status(s)
}

// lines splits multi-line notes for rendering as separate paragraphs
func lines(s string) []string {
	return strings.Split(strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n"), "\n")
}
