package tax

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

// TotalsSummary builds the tax summary of a batch of lines in currency.
// Lines without rounded details are computed and rounded first.
func (e *Engine) TotalsSummary(
	lines []*BaseLine,
	currency *entities.Currency,
	company *entities.Company,
) (*entities.TaxTotals, error) {
	if err := currency.Validate(); err != nil {
		return nil, err
	}

	var pending []*BaseLine
	for _, line := range lines {
		if line.TaxDetails == nil {
			pending = append(pending, line)
		}
	}
	if len(pending) > 0 {
		if err := e.AddTaxDetailsBatch(pending, company); err != nil {
			return nil, err
		}
		if err := e.RoundTaxDetails(pending, company); err != nil {
			return nil, err
		}
	}

	totals := &entities.TaxTotals{
		CurrencyID:   currency.ID,
		CurrencyName: currency.Name,
		SameTaxBase:  true,
		Subtotals:    []entities.TaxSubtotal{},
	}

	groups := make(map[string]*entities.TaxGroupTotal)
	var groupOrder []string

	for _, line := range lines {
		details := line.TaxDetails
		totals.BaseAmountCurrency = totals.BaseAmountCurrency.Add(details.TotalExcludedCurrency)
		totals.BaseAmount = totals.BaseAmount.Add(details.TotalExcluded)

		seenInLine := make(map[string]bool)
		for _, td := range details.Taxes {
			name := td.Tax.GroupName()
			group, ok := groups[name]
			if !ok {
				group = &entities.TaxGroupTotal{GroupName: name}
				groups[name] = group
				groupOrder = append(groupOrder, name)
			}
			if !seenInLine[name] {
				group.BaseAmountCurrency = group.BaseAmountCurrency.Add(td.BaseAmountCurrency)
				seenInLine[name] = true
			}
			group.TaxAmountCurrency = group.TaxAmountCurrency.Add(td.TaxAmountCurrency)
		}
	}

	taxGroups := make([]entities.TaxGroupTotal, 0, len(groupOrder))
	for _, name := range groupOrder {
		group := groups[name]
		group.BaseAmountCurrency = currency.Round(group.BaseAmountCurrency)
		group.TaxAmountCurrency = currency.Round(group.TaxAmountCurrency)
		totals.TaxAmountCurrency = totals.TaxAmountCurrency.Add(group.TaxAmountCurrency)
		if !group.BaseAmountCurrency.Equal(totals.BaseAmountCurrency) {
			totals.SameTaxBase = false
		}
		taxGroups = append(taxGroups, *group)
	}

	totals.BaseAmountCurrency = currency.Round(totals.BaseAmountCurrency)
	totals.TaxAmountCurrency = currency.Round(totals.TaxAmountCurrency)
	totals.TotalAmountCurrency = totals.BaseAmountCurrency.Add(totals.TaxAmountCurrency)
	if company != nil && company.Currency != nil {
		totals.BaseAmount = company.Currency.Round(totals.BaseAmount)
	}

	if len(taxGroups) > 0 {
		totals.Subtotals = append(totals.Subtotals, entities.TaxSubtotal{
			Name:               UntaxedAmountLabel,
			BaseAmountCurrency: totals.BaseAmountCurrency,
			TaxAmountCurrency:  totals.TaxAmountCurrency,
			TaxGroups:          taxGroups,
		})
	}

	return totals, nil
}

// SumTaxes returns the rounded tax amount of a line
func SumTaxes(details *TaxDetails) decimal.Decimal {
	sum := decimal.Zero
	if details == nil {
		return sum
	}
	for _, td := range details.Taxes {
		sum = sum.Add(td.TaxAmountCurrency)
	}
	return sum
}
