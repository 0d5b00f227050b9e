package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SaleOrder is the sales document a delivery originates from
type SaleOrder struct {
	ID           int64
	Name         string
	Partner      *Partner
	Company      *Company
	Currency     *Currency
	CurrencyRate decimal.Decimal
}

// SaleOrderLine carries the agreed pricing of a product on a sale order
type SaleOrderLine struct {
	ID        int64
	Order     *SaleOrder
	PriceUnit decimal.Decimal
	Discount  decimal.Decimal
	Taxes     TaxSet
}

// MoveState represents the state of a stock move
type MoveState int

const (
	MoveDraft MoveState = iota
	MoveWaiting
	MoveAssigned
	MoveDone
	MoveCancelled
)

// String method for MoveState enum
func (s MoveState) String() string {
	switch s {
	case MoveDraft:
		return "draft"
	case MoveWaiting:
		return "waiting"
	case MoveAssigned:
		return "assigned"
	case MoveDone:
		return "done"
	case MoveCancelled:
		return "cancel"
	default:
		return "Unknown"
	}
}

// ParseMoveState parses the textual form produced by MoveState.String
func ParseMoveState(s string) (MoveState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "draft":
		return MoveDraft, nil
	case "waiting":
		return MoveWaiting, nil
	case "assigned":
		return MoveAssigned, nil
	case "done":
		return MoveDone, nil
	case "cancel", "cancelled":
		return MoveCancelled, nil
	default:
		return MoveDraft, fmt.Errorf("invalid move state: %s (expected draft, waiting, assigned, done or cancel)", s)
	}
}

// Move is a single product movement on a delivery, the unit that gets valued
type Move struct {
	ID                 int64
	Picking            *Picking
	Company            *Company
	Product            *Product
	DescriptionPicking string
	UoM                *UoM
	ProductUoMQty      decimal.Decimal // requested
	Quantity           decimal.Decimal // moved
	State              MoveState
	Packaging          *Packaging
	SaleLine           *SaleOrderLine
	PackageLevel       string
	Lines              []*MoveLine
}

// SaleOrder returns the order of the linked sale line, if any
func (m *Move) SaleOrder() *SaleOrder {
	if m.SaleLine == nil {
		return nil
	}
	return m.SaleLine.Order
}

// CompanyOrDefault returns the move company, falling back to the picking company
func (m *Move) CompanyOrDefault() *Company {
	if m.Company != nil {
		return m.Company
	}
	if m.Picking != nil {
		return m.Picking.Company
	}
	return nil
}

// PriceUnit returns the sale line unit price, zero without a sale line
func (m *Move) PriceUnit() decimal.Decimal {
	if m.SaleLine == nil {
		return decimal.Zero
	}
	return m.SaleLine.PriceUnit
}

// Discount returns the sale line discount percentage, zero without a sale line
func (m *Move) Discount() decimal.Decimal {
	if m.SaleLine == nil {
		return decimal.Zero
	}
	return m.SaleLine.Discount
}

// Taxes returns the sale line taxes, empty without a sale line
func (m *Move) Taxes() TaxSet {
	if m.SaleLine == nil {
		return nil
	}
	return m.SaleLine.Taxes
}

// AddLine attaches a detailed line to the move
func (m *Move) AddLine(line *MoveLine) {
	line.Move = m
	if line.Product == nil {
		line.Product = m.Product
	}
	if line.UoM == nil {
		line.UoM = m.UoM
	}
	m.Lines = append(m.Lines, line)
}

// MoveLine is a detailed operation of a move (lot, destination package)
type MoveLine struct {
	ID            int64
	Move          *Move
	Product       *Product
	UoM           *UoM
	Quantity      decimal.Decimal
	LotName       string
	ResultPackage string
}

// Picking is a delivery document
type Picking struct {
	ID          int64
	Name        string
	Partner     *Partner
	Company     *Company
	SaleOrder   *SaleOrder
	Moves       []*Move
	BackorderOf *Picking
	Backorders  []*Picking

	AmountUntaxed decimal.Decimal
	AmountTax     decimal.Decimal
	AmountTotal   decimal.Decimal
	TaxTotals     *TaxTotals
}

// Currency returns the sale order currency, falling back to the company currency
func (p *Picking) Currency() *Currency {
	if p.SaleOrder != nil && p.SaleOrder.Currency != nil {
		return p.SaleOrder.Currency
	}
	if p.Company != nil {
		return p.Company.Currency
	}
	return nil
}

// DeliveryReportValued reports whether the partner wants prices on delivery slips
func (p *Picking) DeliveryReportValued() bool {
	return p.Partner != nil && p.Partner.DeliveryReportValued
}

// MovesWithoutPackage returns the moves not handled through a package level
func (p *Picking) MovesWithoutPackage() []*Move {
	var moves []*Move
	for _, move := range p.Moves {
		if move.PackageLevel == "" {
			moves = append(moves, move)
		}
	}
	return moves
}

// MoveLines returns the detailed lines of every move of the picking
func (p *Picking) MoveLines() []*MoveLine {
	var lines []*MoveLine
	for _, move := range p.Moves {
		lines = append(lines, move.Lines...)
	}
	return lines
}

// AddMove attaches a move to the picking
func (p *Picking) AddMove(move *Move) {
	move.Picking = p
	p.Moves = append(p.Moves, move)
}

// AddBackorder links a successor picking created for the remaining quantities
func (p *Picking) AddBackorder(backorder *Picking) {
	backorder.BackorderOf = p
	p.Backorders = append(p.Backorders, backorder)
}

// AggregationKey identifies the report line a move line is merged into.
// Lots and serial numbers are deliberately not part of it.
type AggregationKey struct {
	ProductID   int64
	DisplayName string
	Description string
	UoMID       int64
	PackagingID int64
	Taxes       TaxSetKey
}
