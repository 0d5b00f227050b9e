package tax

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

// amountRef points at one rounded amount inside a batch of base lines
type amountRef struct {
	line int
	tax  int // -1 for the line excluded total
}

// roundingBucket accumulates the amounts rounded together under global rounding
type roundingBucket struct {
	currency   *entities.Currency
	rawSum     decimal.Decimal
	roundedSum decimal.Decimal
	largest    amountRef
	largestRaw decimal.Decimal
}

type bucketKey struct {
	currencyID int64
	taxID      int64
	total      bool
}

// RoundTaxDetails rounds the tax details of a batch in the line currencies.
// Under RoundGlobally the per-tax sums are rounded once and the difference with
// the sum of rounded line amounts is pushed onto the line with the largest raw
// amount, so the batch totals match a global rounding exactly.
func (e *Engine) RoundTaxDetails(lines []*BaseLine, company *entities.Company) error {
	var companyCurrency *entities.Currency
	if company != nil {
		companyCurrency = company.Currency
	}

	for _, line := range lines {
		if line.TaxDetails == nil {
			if err := e.AddTaxDetails(line, company); err != nil {
				return err
			}
		}
		if err := line.Currency.Validate(); err != nil {
			return err
		}

		details := line.TaxDetails
		for i := range details.Taxes {
			td := &details.Taxes[i]
			td.BaseAmountCurrency = line.Currency.Round(td.RawBaseAmountCurrency)
			td.TaxAmountCurrency = line.Currency.Round(td.RawTaxAmountCurrency)
		}
		details.TotalExcludedCurrency = line.Currency.Round(details.RawTotalExcludedCurrency)
		details.TotalExcluded = roundIn(companyCurrency, line.Currency, details.RawTotalExcluded)
		details.TotalIncluded = roundIn(companyCurrency, line.Currency, details.RawTotalIncluded)
	}

	if company != nil && company.TaxRounding == entities.RoundGlobally {
		e.distributeGlobalRounding(lines)
	}

	for _, line := range lines {
		details := line.TaxDetails
		included := details.TotalExcludedCurrency
		for _, td := range details.Taxes {
			included = included.Add(td.TaxAmountCurrency)
		}
		details.TotalIncludedCurrency = included
	}

	return nil
}

func (e *Engine) distributeGlobalRounding(lines []*BaseLine) {
	buckets := make(map[bucketKey]*roundingBucket)
	var order []bucketKey

	track := func(key bucketKey, currency *entities.Currency, ref amountRef, raw, rounded decimal.Decimal) {
		b, ok := buckets[key]
		if !ok {
			b = &roundingBucket{currency: currency, largest: ref, largestRaw: raw.Abs()}
			buckets[key] = b
			order = append(order, key)
		}
		b.rawSum = b.rawSum.Add(raw)
		b.roundedSum = b.roundedSum.Add(rounded)
		if raw.Abs().GreaterThan(b.largestRaw) {
			b.largest = ref
			b.largestRaw = raw.Abs()
		}
	}

	for i, line := range lines {
		details := line.TaxDetails
		track(
			bucketKey{currencyID: line.Currency.ID, total: true},
			line.Currency,
			amountRef{line: i, tax: -1},
			details.RawTotalExcludedCurrency,
			details.TotalExcludedCurrency,
		)
		for j, td := range details.Taxes {
			track(
				bucketKey{currencyID: line.Currency.ID, taxID: td.Tax.ID},
				line.Currency,
				amountRef{line: i, tax: j},
				td.RawTaxAmountCurrency,
				td.TaxAmountCurrency,
			)
		}
	}

	for _, key := range order {
		b := buckets[key]
		delta := b.currency.Round(b.rawSum).Sub(b.roundedSum)
		if delta.IsZero() {
			continue
		}

		details := lines[b.largest.line].TaxDetails
		if b.largest.tax < 0 {
			details.TotalExcludedCurrency = details.TotalExcludedCurrency.Add(delta)
		} else {
			td := &details.Taxes[b.largest.tax]
			td.TaxAmountCurrency = td.TaxAmountCurrency.Add(delta)
		}

		e.logger.Debug("applied global rounding delta",
			zap.Int64("currency_id", key.currencyID),
			zap.Int64("tax_id", key.taxID),
			zap.Bool("total", key.total),
			zap.String("delta", delta.String()),
		)
	}
}

// roundIn rounds in the preferred currency, falling back to the line currency
func roundIn(preferred, fallback *entities.Currency, amount decimal.Decimal) decimal.Decimal {
	if preferred != nil && preferred.Rounding.IsPositive() {
		return preferred.Round(amount)
	}
	return fallback.Round(amount)
}
