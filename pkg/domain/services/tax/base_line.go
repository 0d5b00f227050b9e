// Package tax computes tax details for base lines, rounds them by company policy
// and summarizes them per tax group.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

// BaseLine is a normalized line submitted for tax computation
type BaseLine struct {
	MoveID    int64
	Taxes     entities.TaxSet
	Quantity  decimal.Decimal
	PriceUnit decimal.Decimal
	Discount  decimal.Decimal
	Partner   *entities.Partner
	Currency  *entities.Currency
	Rate      decimal.Decimal

	TaxDetails *TaxDetails
}

// TaxDetails holds the computed amounts of a base line. Raw amounts are
// unrounded; the others are filled by Engine.RoundTaxDetails.
type TaxDetails struct {
	RawTotalExcludedCurrency decimal.Decimal
	RawTotalIncludedCurrency decimal.Decimal
	RawTotalExcluded         decimal.Decimal
	RawTotalIncluded         decimal.Decimal

	TotalExcludedCurrency decimal.Decimal
	TotalIncludedCurrency decimal.Decimal
	TotalExcluded         decimal.Decimal
	TotalIncluded         decimal.Decimal

	Taxes []TaxData
}

// TaxData is the contribution of a single tax to a base line
type TaxData struct {
	Tax                   *entities.Tax
	RawBaseAmountCurrency decimal.Decimal
	RawTaxAmountCurrency  decimal.Decimal
	BaseAmountCurrency    decimal.Decimal
	TaxAmountCurrency     decimal.Decimal
}

// EffectiveRate returns the line currency rate, 1 when unset
func (l *BaseLine) EffectiveRate() decimal.Decimal {
	if !l.Rate.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return l.Rate
}

// toCompany converts a line-currency amount into company currency
func (l *BaseLine) toCompany(amount decimal.Decimal) decimal.Decimal {
	return amount.Div(l.EffectiveRate())
}
