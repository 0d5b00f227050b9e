package tax

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

// ErrInvalidTax is returned for tax definitions that cannot produce an amount
var ErrInvalidTax = errors.New("invalid tax")

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// UntaxedAmountLabel names the single subtotal of a tax summary
const UntaxedAmountLabel = "Untaxed Amount"

// Engine is the default tax computation service
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a tax engine. A nil logger disables logging.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// AddTaxDetails computes the unrounded tax details of a single base line.
// Taxes are applied in sequence order; price-included taxes are taken out of
// the excluded total and taxes affecting the base of subsequent ones grow it.
func (e *Engine) AddTaxDetails(line *BaseLine, company *entities.Company) error {
	if line.Currency == nil && company != nil {
		line.Currency = company.Currency
	}
	if err := line.Currency.Validate(); err != nil {
		return err
	}

	discounted := line.PriceUnit.Mul(one.Sub(line.Discount.Div(hundred)))
	raw := discounted.Mul(line.Quantity)

	totalExcluded := raw
	totalIncluded := raw
	base := raw

	details := &TaxDetails{}
	for _, t := range line.Taxes.Sorted() {
		amount, err := computeAmount(t, base, line.Quantity)
		if err != nil {
			return err
		}

		if t.PriceInclude {
			totalExcluded = totalExcluded.Sub(amount)
			base = base.Sub(amount)
		} else {
			totalIncluded = totalIncluded.Add(amount)
		}

		taxBase := base
		if t.IncludeBaseAmount {
			base = base.Add(amount)
		}

		details.Taxes = append(details.Taxes, TaxData{
			Tax:                   t,
			RawBaseAmountCurrency: taxBase,
			RawTaxAmountCurrency:  amount,
		})
	}

	details.RawTotalExcludedCurrency = totalExcluded
	details.RawTotalIncludedCurrency = totalIncluded
	details.RawTotalExcluded = line.toCompany(totalExcluded)
	details.RawTotalIncluded = line.toCompany(totalIncluded)
	line.TaxDetails = details

	return nil
}

// AddTaxDetailsBatch computes the tax details of every line
func (e *Engine) AddTaxDetailsBatch(lines []*BaseLine, company *entities.Company) error {
	for _, line := range lines {
		if err := e.AddTaxDetails(line, company); err != nil {
			return err
		}
	}
	return nil
}

// computeAmount returns the amount of a single tax applied on base
func computeAmount(t *entities.Tax, base, quantity decimal.Decimal) (decimal.Decimal, error) {
	switch t.AmountType {
	case entities.TaxFixed:
		if base.IsZero() {
			return quantity.Mul(t.Amount), nil
		}
		signedQty := quantity.Abs()
		if base.IsNegative() {
			signedQty = signedQty.Neg()
		}
		return signedQty.Mul(t.Amount), nil

	case entities.TaxPercent:
		if t.PriceInclude {
			return base.Sub(base.Div(one.Add(t.Amount.Div(hundred)))), nil
		}
		return base.Mul(t.Amount).Div(hundred), nil

	case entities.TaxDivision:
		if t.PriceInclude {
			return base.Mul(t.Amount).Div(hundred), nil
		}
		if t.Amount.GreaterThanOrEqual(hundred) {
			return decimal.Zero, fmt.Errorf("%w: division tax %s cannot be %s%%", ErrInvalidTax, t.Name, t.Amount)
		}
		return base.Div(one.Sub(t.Amount.Div(hundred))).Sub(base), nil

	default:
		return decimal.Zero, fmt.Errorf("%w: %s has unhandled amount type %s", ErrInvalidTax, t.Name, t.AmountType)
	}
}
