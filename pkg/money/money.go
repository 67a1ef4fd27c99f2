// Package money renders dashboard amounts in the company currency using
// integer minor units.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a profile currency is not a known ISO-4217 code
const DefaultCurrency = "SAR"

// Money is an amount in minor units of a currency
type Money struct {
	m *money.Money
}

// NormalizeCurrency upper-cases and trims a currency code
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsKnownCurrency reports whether code is an ISO-4217 code known to go-money
func IsKnownCurrency(code string) bool {
	code = NormalizeCurrency(code)
	return code != "" && money.GetCurrency(code) != nil
}

// ValidateCurrency returns an error for an unknown currency code
func ValidateCurrency(code string) error {
	if !IsKnownCurrency(code) {
		return fmt.Errorf("unknown currency code %q", code)
	}
	return nil
}

func currencyOrDefault(code string) *money.Currency {
	if c := money.GetCurrency(NormalizeCurrency(code)); c != nil {
		return c
	}
	return money.GetCurrency(DefaultCurrency)
}

// NewFromDecimal creates Money from a decimal amount, rounded to the
// currency's minor unit
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	c := currencyOrDefault(currencyCode)
	minor := amount.Shift(int32(c.Fraction)).Round(0).IntPart()
	return &Money{m: money.New(minor, c.Code)}
}

// NewFromFloat creates Money from a float amount
func NewFromFloat(amount float64, currencyCode string) *Money {
	return NewFromDecimal(decimal.NewFromFloat(amount), currencyCode)
}

// Amount returns the amount in minor units
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// Display returns a formatted string such as "$1,234.56"
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Display()
}

// ToDecimal converts back to a decimal amount
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -int32(m.m.Currency().Fraction))
}

// MarshalJSON encodes the amount with its currency and display string
func (m *Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.ToDecimal().StringFixed(int32(currencyOrDefault(m.Currency()).Fraction)),
		Currency: m.Currency(),
		Display:  m.Display(),
	})
}

// Formatter renders amounts in a single currency
type Formatter struct {
	currency string
}

// NewFormatter returns a formatter for code, falling back to DefaultCurrency
func NewFormatter(code string) Formatter {
	return Formatter{currency: currencyOrDefault(code).Code}
}

// Currency returns the formatter's currency code
func (f Formatter) Currency() string {
	return f.currency
}

// Money converts a float amount
func (f Formatter) Money(amount float64) *Money {
	return NewFromFloat(amount, f.currency)
}

// Display formats a float amount
func (f Formatter) Display(amount float64) string {
	return f.Money(amount).Display()
}
