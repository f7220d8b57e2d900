package gotemplate

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is the locale prediction amounts are shown in.
var DefaultLocale = language.MustParse("es-ES")

// NumberFormatter renders numbers with locale grouping and decimal marks.
type NumberFormatter struct {
	printer *message.Printer
}

// NewNumberFormatter builds a formatter for tag.
func NewNumberFormatter(tag language.Tag) *NumberFormatter {
	return &NumberFormatter{printer: message.NewPrinter(tag)}
}

// Money formats v with exactly two fraction digits, prefixed by "$".
func (f *NumberFormatter) Money(v float64) string {
	if special, ok := nonFinite(v); ok {
		return special
	}
	return "$" + f.printer.Sprintf("%v", number.Decimal(v,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// Amount formats v with up to three fraction digits.
func (f *NumberFormatter) Amount(v float64) string {
	if special, ok := nonFinite(v); ok {
		return special
	}
	return f.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(3)))
}

// Fixed formats v with digits decimals and a dot separator, independent of
// locale.
func (f *NumberFormatter) Fixed(v float64, digits int) string {
	if special, ok := nonFinite(v); ok {
		return special
	}
	if digits < 0 {
		digits = 0
	}
	return strconv.FormatFloat(v, 'f', digits, 64)
}

// Plain formats v with the shortest exact representation and a dot
// separator: 87.5, 25, 0.62.
func (f *NumberFormatter) Plain(v float64) string {
	if special, ok := nonFinite(v); ok {
		return special
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Funcs exposes the formatter as template functions:
//
//	{{ money(result.precio_predicho) }}
//	{{ amount(result.revalorizacion.valor_1_ano) }}
//	{{ fixed(result.rentabilidad_alquiler.roi_anual, 2) }}
//	{{ plain(result.confianza) }}
func (f *NumberFormatter) Funcs() map[string]any {
	return map[string]any{
		"money":  func(v any) string { return f.Money(toFloat(v)) },
		"amount": func(v any) string { return f.Amount(toFloat(v)) },
		"plain":  func(v any) string { return f.Plain(toFloat(v)) },
		"fixed": func(v any, digits any) string {
			return f.Fixed(toFloat(v), int(toFloat(digits)))
		},
	}
}

func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "∞", true
	case math.IsInf(v, -1):
		return "-∞", true
	}
	return "", false
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
