package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	CAD Currency = "CAD"
)

// DefaultCurrency is the currency documents are issued in unless configured otherwise.
// Amounts are never converted between currencies.
const DefaultCurrency = USD

// CentPlaces is the number of decimal places every stored currency value is rounded to
const CentPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// RoundCents rounds d half away from zero to two decimal places
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// Percent returns base * rate / 100 rounded to cents
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return RoundCents(base.Mul(rate).Div(hundred))
}

// Money is an immutable monetary amount in a single currency
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, currency)
}

// NewMoneyUSD creates Money in the default currency
func NewMoneyUSD(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: DefaultCurrency}
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns the sum of both amounts. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns the difference of both amounts. Currencies must match.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot subtract money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Round returns the amount rounded to cents
func (m Money) Round() Money {
	return Money{amount: RoundCents(m.amount), currency: m.currency}
}

// Max returns the larger of m and other, assuming the same currency
func (m Money) Max(other Money) Money {
	if other.amount.GreaterThan(m.amount) {
		return other
	}
	return m
}

// String renders the amount with two decimals followed by the currency code
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(CentPlaces), m.currency)
}

// Format renders the amount with a currency symbol, e.g. "$1,234.50"
func (m Money) Format() string {
	sign := ""
	amt := m.amount
	if amt.IsNegative() {
		sign = "-"
		amt = amt.Neg()
	}
	fixed := amt.StringFixed(CentPlaces)
	whole, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]
	grouped := make([]byte, 0, len(whole)+len(whole)/3)
	for i := range len(whole) {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, whole[i])
	}
	return sign + currencySymbol(m.currency) + string(grouped) + "." + frac
}

func currencySymbol(c Currency) string {
	switch c {
	case USD, CAD:
		return "$"
	case EUR:
		return "€"
	case GBP:
		return "£"
	default:
		return string(c) + " "
	}
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(CentPlaces), Currency: m.currency})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var mj moneyJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(mj.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	if mj.Currency == "" {
		mj.Currency = DefaultCurrency
	}
	m.amount = amount
	m.currency = mj.Currency
	return nil
}
