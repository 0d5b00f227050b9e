package entities

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidCurrency is returned when a currency cannot be used to round amounts
var ErrInvalidCurrency = errors.New("invalid currency")

// Currency represents a monetary currency and its rounding precision
type Currency struct {
	ID       int64
	Name     string
	Symbol   string
	Rounding decimal.Decimal
}

// NewCurrency creates a validated Currency
func NewCurrency(id int64, name, symbol string, rounding decimal.Decimal) (*Currency, error) {
	c := &Currency{ID: id, Name: name, Symbol: symbol, Rounding: rounding}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the currency can round amounts
func (c *Currency) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: missing currency", ErrInvalidCurrency)
	}
	if !c.Rounding.IsPositive() {
		return fmt.Errorf("%w: %s has rounding %s", ErrInvalidCurrency, c.Name, c.Rounding)
	}
	return nil
}

// Round rounds amount half away from zero to a multiple of the currency rounding.
// A currency without a positive rounding leaves the amount untouched.
func (c *Currency) Round(amount decimal.Decimal) decimal.Decimal {
	if c == nil || !c.Rounding.IsPositive() {
		return amount
	}
	return roundToMultiple(amount, c.Rounding)
}

// IsZero reports whether amount rounds to zero in this currency
func (c *Currency) IsZero(amount decimal.Decimal) bool {
	return c.Round(amount).IsZero()
}

// TaxRoundingMethod controls when tax amounts are rounded
type TaxRoundingMethod int

const (
	RoundPerLine TaxRoundingMethod = iota
	RoundGlobally
)

// String method for TaxRoundingMethod enum
func (m TaxRoundingMethod) String() string {
	switch m {
	case RoundPerLine:
		return "round_per_line"
	case RoundGlobally:
		return "round_globally"
	default:
		return "Unknown"
	}
}

// Company owns documents and provides the fallback currency
type Company struct {
	ID          int64
	Name        string
	Currency    *Currency
	TaxRounding TaxRoundingMethod
}

// Partner is the counterparty of a delivery
type Partner struct {
	ID                   int64
	Name                 string
	DeliveryReportValued bool
}

// roundToMultiple rounds value half away from zero to the nearest multiple of step
func roundToMultiple(value, step decimal.Decimal) decimal.Decimal {
	return value.Div(step).Round(0).Mul(step)
}
