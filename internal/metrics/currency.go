package metrics

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultBaseCurrency is the currency costs are stored in unless configured otherwise.
const DefaultBaseCurrency = "pln"

// Accepted rate range. Rates outside it overflow conversions.
const (
	MinRate = 1e-9
	MaxRate = 1e9
)

// invalidAmount is shown for amounts that cannot be formatted.
const invalidAmount = "-"

var currencySymbols = map[string]string{
	"pln": "zł",
	"eur": "€",
	"usd": "$",
	"gbp": "£",
	"chf": "CHF",
	"czk": "Kč",
	"sek": "kr",
	"nok": "kr",
	"dkk": "kr",
	"jpy": "¥",
	"uah": "₴",
}

// RateTable maps lowercase currency codes to the price of one unit in the base currency.
type RateTable struct {
	base  string
	rates map[string]float64
}

// NewRateTable copies the given rates, lowercasing codes, dropping rates
// outside [MinRate, MaxRate] and forcing the base currency to 1.
func NewRateTable(base string, rates map[string]float64) RateTable {
	base = normalizeCode(base)
	if base == "" {
		base = DefaultBaseCurrency
	}
	t := RateTable{base: base, rates: make(map[string]float64, len(rates)+1)}
	for code, rate := range rates {
		code = normalizeCode(code)
		if code == "" || !ValidRate(rate) {
			continue
		}
		t.rates[code] = rate
	}
	t.rates[base] = 1
	return t
}

// Base returns the base currency code.
func (t RateTable) Base() string {
	if t.base == "" {
		return DefaultBaseCurrency
	}
	return t.base
}

// Rate returns the rate of a code and whether it was known. Unknown codes rate 1.
func (t RateTable) Rate(code string) (float64, bool) {
	code = normalizeCode(code)
	if code == t.Base() {
		return 1, true
	}
	rate, ok := t.rates[code]
	if !ok || !ValidRate(rate) {
		return 1, false
	}
	return rate, true
}

// Codes returns the known currency codes in sorted order.
func (t RateTable) Codes() []string {
	codes := make([]string, 0, len(t.rates)+1)
	hasBase := false
	for code := range t.rates {
		if code == t.Base() {
			hasBase = true
		}
		codes = append(codes, code)
	}
	if !hasBase {
		codes = append(codes, t.Base())
	}
	sort.Strings(codes)
	return codes
}

// Convert converts an amount between two currencies, pivoting through the base.
// An empty from means the base currency; an empty to means the base currency.
func (t RateTable) Convert(amount float64, from, to string) float64 {
	base := t.Base()
	from = normalizeCode(from)
	to = normalizeCode(to)
	if from == "" {
		from = base
	}
	if to == "" {
		to = base
	}
	if from == to {
		return amount
	}
	fromRate, _ := t.Rate(from)
	toRate, _ := t.Rate(to)
	switch {
	case from == base:
		return amount / toRate
	case to == base:
		return amount * fromRate
	default:
		return amount * fromRate / toRate
	}
}

// ValidRate reports whether a rate is finite and within [MinRate, MaxRate].
func ValidRate(rate float64) bool {
	return !math.IsNaN(rate) && rate >= MinRate && rate <= MaxRate
}

// Converter converts base-currency amounts into a display currency.
type Converter struct {
	Rates   RateTable
	Display string
}

// NewConverter builds a converter; an empty display currency means the base.
func NewConverter(rates RateTable, display string) Converter {
	display = normalizeCode(display)
	if display == "" {
		display = rates.Base()
	}
	return Converter{Rates: rates, Display: display}
}

// Convert converts an amount; an empty from means the base, an empty to the display currency.
func (c Converter) Convert(amount float64, from, to string) float64 {
	if strings.TrimSpace(to) == "" {
		to = c.display()
	}
	return c.Rates.Convert(amount, from, to)
}

// ToDisplay converts a base-currency amount into the display currency.
func (c Converter) ToDisplay(amount float64) float64 {
	return c.Rates.Convert(amount, "", c.display())
}

// FormatDisplay converts a base-currency amount and formats it in the display currency.
func (c Converter) FormatDisplay(amount float64) string {
	return FormatAmount(c.ToDisplay(amount), c.display())
}

func (c Converter) display() string {
	if c.Display == "" {
		return c.Rates.Base()
	}
	return c.Display
}

// FormatAmount renders an amount with two decimals, a comma separator and a currency symbol.
// Non-finite amounts render as a placeholder.
func FormatAmount(amount float64, code string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return invalidAmount + " " + CurrencySymbol(code)
	}
	s := decimal.NewFromFloat(amount).StringFixed(2)
	if s == "-0.00" {
		s = "0.00"
	}
	return strings.Replace(s, ".", ",", 1) + " " + CurrencySymbol(code)
}

// CurrencySymbol returns the display symbol of a code, or the uppercased code.
func CurrencySymbol(code string) string {
	code = normalizeCode(code)
	if sym, ok := currencySymbols[code]; ok {
		return sym
	}
	return strings.ToUpper(code)
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
