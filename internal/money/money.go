// Package money provides fixed-point monetary amounts held in ISO 4217
// minor units. All arithmetic is integer arithmetic; binary floating
// point never enters balance math.
package money

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	gomoney "github.com/Rhymond/go-money"
)

// Amount is a monetary value stored as an integer count of the currency's
// minor unit (cents for USD, yen for JPY, fils for KWD).
type Amount struct {
	Units    int64
	Currency string
}

// New creates an Amount from minor units and a currency code.
func New(units int64, currency string) Amount {
	return Amount{Units: units, Currency: normalize(currency)}
}

// Zero returns the zero Amount for the given currency.
func Zero(currency string) Amount {
	return New(0, currency)
}

// Fraction returns the number of minor-unit decimal places for the
// currency per ISO 4217. Unknown or empty codes default to 2.
func Fraction(currency string) int {
	c := gomoney.GetCurrency(normalize(currency))
	if c == nil {
		return 2
	}
	return c.Fraction
}

func normalize(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		return gomoney.USD
	}
	return code
}

// Parse converts a decimal string such as "33.34" or "-7" into an Amount.
// More decimal places than the currency carries is an error.
func Parse(value, currency string) (Amount, error) {
	currency = normalize(currency)
	frac := Fraction(currency)

	s := strings.TrimSpace(value)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return Amount{}, fmt.Errorf("money: invalid amount %q", value)
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > frac {
		return Amount{}, fmt.Errorf("money: %q has more than %d decimal places for %s", value, frac, currency)
	}
	for len(fracPart) < frac {
		fracPart += "0"
	}

	units, err := strconv.ParseInt(intPart+fracPart, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("money: invalid amount %q: %w", value, err)
	}
	if neg {
		units = -units
	}
	return Amount{Units: units, Currency: currency}, nil
}

// Add returns a+b. The currencies must match.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("money: currency mismatch %s vs %s", a.Currency, b.Currency)
	}
	return Amount{Units: a.Units + b.Units, Currency: a.Currency}, nil
}

// Neg returns the negated amount.
func (a Amount) Neg() Amount {
	return Amount{Units: -a.Units, Currency: a.Currency}
}

// Abs returns the absolute amount.
func (a Amount) Abs() Amount {
	if a.Units < 0 {
		return a.Neg()
	}
	return a
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.Units == 0
}

// Format renders the amount as a plain decimal string with the
// currency's minor-unit precision, e.g. "33.34", "-0.05", "120" for JPY.
func (a Amount) Format() string {
	frac := Fraction(a.Currency)
	u := a.Units
	sign := ""
	if u < 0 {
		sign = "-"
		u = -u
	}
	if frac == 0 {
		return sign + strconv.FormatInt(u, 10)
	}
	scale := pow10(frac)
	return fmt.Sprintf("%s%d.%0*d", sign, u/scale, frac, u%scale)
}

// String renders the amount with its currency code, e.g. "33.34 USD".
func (a Amount) String() string {
	return a.Format() + " " + a.Currency
}

func pow10(n int) int64 {
	p := int64(1)
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

type amountJSON struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// MarshalJSON encodes the amount as {"value":"33.34","currency":"USD"}.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(amountJSON{Value: a.Format(), Currency: a.Currency})
}

// UnmarshalJSON decodes the format produced by MarshalJSON.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw amountJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw.Value, raw.Currency)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
