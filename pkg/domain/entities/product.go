package entities

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidUoM is returned for units of measure that cannot convert quantities
var ErrInvalidUoM = errors.New("invalid unit of measure")

// UoM represents a unit of measure. Ratio is the number of reference units
// of the category contained in one of this unit (Units = 1, Dozens = 12).
type UoM struct {
	ID       int64
	Name     string
	Category string
	Ratio    decimal.Decimal
	Rounding decimal.Decimal
}

// Validate checks that the unit can take part in conversions
func (u *UoM) Validate() error {
	if u == nil {
		return fmt.Errorf("%w: missing unit", ErrInvalidUoM)
	}
	if !u.Ratio.IsPositive() {
		return fmt.Errorf("%w: %s has ratio %s", ErrInvalidUoM, u.Name, u.Ratio)
	}
	return nil
}

// IsZero reports whether qty is zero at the unit's rounding precision
func (u *UoM) IsZero(qty decimal.Decimal) bool {
	if u == nil || !u.Rounding.IsPositive() {
		return qty.IsZero()
	}
	return roundToMultiple(qty, u.Rounding).IsZero()
}

// Product represents a stockable product
type Product struct {
	ID          int64
	DefaultCode string
	Name        string
	UoM         *UoM
}

// DisplayName returns the product name prefixed with its internal reference
func (p *Product) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.DefaultCode != "" {
		return fmt.Sprintf("[%s] %s", p.DefaultCode, p.Name)
	}
	return p.Name
}

// Packaging groups a fixed quantity of a product, expressed in the product UoM
type Packaging struct {
	ID      int64
	Name    string
	Product *Product
	Qty     decimal.Decimal
}

// UoM returns the unit the packaging quantity is expressed in
func (p *Packaging) UoM() *UoM {
	if p == nil || p.Product == nil {
		return nil
	}
	return p.Product.UoM
}
