package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

// MoveValuation contains the pricing of a single move derived from its sale line
type MoveValuation struct {
	MoveID        int64
	Currency      *entities.Currency
	PriceUnit     decimal.Decimal
	Discount      decimal.Decimal
	Taxes         entities.TaxSet
	PriceSubtotal decimal.Decimal
	PriceTax      decimal.Decimal
	PriceTotal    decimal.Decimal
}

// AggregatedLine is one report line merging every move line sharing a key.
// Quantity is invalid (unset) for lines only recovered from cancelled moves.
type AggregatedLine struct {
	Key               entities.AggregationKey
	Product           *entities.Product
	Name              string
	Description       string
	Quantity          decimal.NullDecimal
	QtyOrdered        decimal.Decimal
	ProductUoM        *entities.UoM
	Packaging         *entities.Packaging
	PackagingQty      decimal.Decimal
	PackagingQuantity decimal.Decimal
	PriceUnit         decimal.Decimal
	Discount          decimal.Decimal
	Taxes             entities.TaxSet
	PriceSubtotal     decimal.Decimal
}

// QuantityOrZero returns the aggregated quantity, zero when unset
func (l *AggregatedLine) QuantityOrZero() decimal.Decimal {
	if !l.Quantity.Valid {
		return decimal.Zero
	}
	return l.Quantity.Decimal
}

// Aggregation maps aggregation keys to report lines, remembering the order in
// which keys were first seen
type Aggregation struct {
	Lines map[entities.AggregationKey]*AggregatedLine
	Keys  []entities.AggregationKey
}

// NewAggregation creates an empty aggregation
func NewAggregation() *Aggregation {
	return &Aggregation{Lines: make(map[entities.AggregationKey]*AggregatedLine)}
}

// Get returns the line for key, if any
func (a *Aggregation) Get(key entities.AggregationKey) (*AggregatedLine, bool) {
	line, ok := a.Lines[key]
	return line, ok
}

// Add registers a new line under its key
func (a *Aggregation) Add(line *AggregatedLine) {
	a.Lines[line.Key] = line
	a.Keys = append(a.Keys, line.Key)
}

// Ordered returns the lines in first-seen order
func (a *Aggregation) Ordered() []*AggregatedLine {
	lines := make([]*AggregatedLine, 0, len(a.Keys))
	for _, key := range a.Keys {
		lines = append(lines, a.Lines[key])
	}
	return lines
}

// Len returns the number of report lines
func (a *Aggregation) Len() int {
	return len(a.Keys)
}

// PickingTotals contains the document level amounts of a picking
type PickingTotals struct {
	PickingID     int64
	Currency      *entities.Currency
	AmountUntaxed decimal.Decimal
	AmountTax     decimal.Decimal
	AmountTotal   decimal.Decimal
	TaxTotals     *entities.TaxTotals
}

// PackageSection lists the aggregated content of one result package
type PackageSection struct {
	Package string
	Lines   []*AggregatedLine
}

// DeliverySlip is everything a delivery slip report renders
type DeliverySlip struct {
	PickingID      int64
	PickingName    string
	PartnerName    string
	SaleOrderName  string
	Valued         bool
	Currency       *entities.Currency
	Lines          []*AggregatedLine
	Packages       []PackageSection
	Valuations     []MoveValuation
	Totals         *PickingTotals
	BackorderNames []string
}
