// Package format renders currency, numbers and dates for display.
//
// A Formatter is built once from configuration and passed to whatever needs
// it; there is no package-level formatting state.
package format

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter formats values for one locale and currency.
type Formatter struct {
	printer    *message.Printer
	unit       currency.Unit
	dateLayout string
	dateLocale monday.Locale
}

// New creates a Formatter. locale is a BCP 47 tag such as "en-US",
// currencyCode an ISO 4217 code such as "USD".
func New(locale, currencyCode, dateLayout string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", currencyCode, err)
	}
	if dateLayout == "" {
		dateLayout = time.DateOnly
	}
	return &Formatter{
		printer:    message.NewPrinter(tag),
		unit:       unit,
		dateLayout: dateLayout,
		dateLocale: dateLocale(tag),
	}, nil
}

// Currency formats an amount with the currency symbol, e.g. "$ 9.50".
// Non-numeric values are returned unchanged as text.
func (f *Formatter) Currency(v any) string {
	amount, ok := toFloat(v)
	if !ok {
		return text(v)
	}
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount)))
}

// Number formats a value with locale grouping and up to two decimals.
func (f *Formatter) Number(v any) string {
	n, ok := toFloat(v)
	if !ok {
		return text(v)
	}
	return f.printer.Sprint(number.Decimal(n, number.MaxFractionDigits(2)))
}

// Date formats a time with the configured layout, translating month and
// day names for the locale. Strings that look like dates ("2024-01-05",
// "Jan 5, 2024", "01/05/2024") are parsed first; anything else is returned
// as text.
func (f *Formatter) Date(v any) string {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case string:
		parsed, err := dateparse.ParseAny(val)
		if err != nil {
			return val
		}
		t = parsed
	default:
		return text(v)
	}
	if t.IsZero() {
		return ""
	}
	return monday.Format(t, f.dateLayout, f.dateLocale)
}

// dateLocales maps language_REGION, then language, to monday locales.
var dateLocales = map[string]monday.Locale{
	"en":    monday.LocaleEnUS,
	"en_GB": monday.LocaleEnGB,
	"de":    monday.LocaleDeDE,
	"fr":    monday.LocaleFrFR,
	"fr_CA": monday.LocaleFrCA,
	"es":    monday.LocaleEsES,
	"it":    monday.LocaleItIT,
	"pt":    monday.LocalePtPT,
	"pt_BR": monday.LocalePtBR,
	"nl":    monday.LocaleNlNL,
	"da":    monday.LocaleDaDK,
	"fi":    monday.LocaleFiFI,
	"sv":    monday.LocaleSvSE,
	"pl":    monday.LocalePlPL,
	"ru":    monday.LocaleRuRU,
	"ja":    monday.LocaleJaJP,
	"zh":    monday.LocaleZhCN,
	"zh_TW": monday.LocaleZhTW,
}

func dateLocale(tag language.Tag) monday.Locale {
	base, _ := tag.Base()
	region, _ := tag.Region()
	if l, ok := dateLocales[base.String()+"_"+region.String()]; ok {
		return l
	}
	if l, ok := dateLocales[base.String()]; ok {
		return l
	}
	return monday.LocaleEnUS
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func text(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
