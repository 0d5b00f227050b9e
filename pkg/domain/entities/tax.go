package entities

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxAmountType describes how a tax amount is derived from its base
type TaxAmountType int

const (
	TaxPercent TaxAmountType = iota
	TaxFixed
	TaxDivision
)

// String method for TaxAmountType enum
func (t TaxAmountType) String() string {
	switch t {
	case TaxPercent:
		return "percent"
	case TaxFixed:
		return "fixed"
	case TaxDivision:
		return "division"
	default:
		return "Unknown"
	}
}

// Tax represents a sales tax
type Tax struct {
	ID                int64
	Name              string
	Sequence          int
	AmountType        TaxAmountType
	Amount            decimal.Decimal
	PriceInclude      bool
	IncludeBaseAmount bool
	Group             string
}

// GroupName returns the tax group used in tax breakdowns, defaulting to the tax name
func (t *Tax) GroupName() string {
	if t.Group != "" {
		return t.Group
	}
	return t.Name
}

// TaxSet is an unordered set of taxes applied to a line
type TaxSet []*Tax

// TaxSetKey is the canonical, comparable identity of a TaxSet
type TaxSetKey string

// Key returns the sorted, de-duplicated tax IDs of the set
func (s TaxSet) Key() TaxSetKey {
	if len(s) == 0 {
		return ""
	}
	ids := make([]int64, 0, len(s))
	seen := make(map[int64]bool, len(s))
	for _, tax := range s {
		if tax == nil || seen[tax.ID] {
			continue
		}
		seen[tax.ID] = true
		ids = append(ids, tax.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return TaxSetKey(strings.Join(parts, ","))
}

// Sorted returns the taxes ordered by sequence, then ID
func (s TaxSet) Sorted() TaxSet {
	sorted := make(TaxSet, 0, len(s))
	for _, tax := range s {
		if tax != nil {
			sorted = append(sorted, tax)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Sequence != sorted[j].Sequence {
			return sorted[i].Sequence < sorted[j].Sequence
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// Names returns the tax names in sequence order
func (s TaxSet) Names() []string {
	sorted := s.Sorted()
	names := make([]string, len(sorted))
	for i, tax := range sorted {
		names[i] = tax.Name
	}
	return names
}

// TaxGroupTotal is the tax breakdown of one tax group
type TaxGroupTotal struct {
	GroupName          string          `json:"group_name"`
	BaseAmountCurrency decimal.Decimal `json:"base_amount_currency"`
	TaxAmountCurrency  decimal.Decimal `json:"tax_amount_currency"`
}

// TaxSubtotal groups tax groups under a subtotal label
type TaxSubtotal struct {
	Name               string          `json:"name"`
	BaseAmountCurrency decimal.Decimal `json:"base_amount_currency"`
	TaxAmountCurrency  decimal.Decimal `json:"tax_amount_currency"`
	TaxGroups          []TaxGroupTotal `json:"tax_groups"`
}

// TaxTotals is the tax summary of a document, in the document currency
type TaxTotals struct {
	CurrencyID          int64           `json:"currency_id"`
	CurrencyName        string          `json:"currency_name"`
	BaseAmountCurrency  decimal.Decimal `json:"base_amount_currency"`
	TaxAmountCurrency   decimal.Decimal `json:"tax_amount_currency"`
	TotalAmountCurrency decimal.Decimal `json:"total_amount_currency"`
	BaseAmount          decimal.Decimal `json:"base_amount"`
	SameTaxBase         bool            `json:"same_tax_base"`
	Subtotals           []TaxSubtotal   `json:"subtotals"`
}
