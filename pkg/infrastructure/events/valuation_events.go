package events

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

const (
	MoveQuantityChangedEvent    = "move.quantity_changed"
	SaleLinePricingChangedEvent = "sale_line.pricing_changed"
	PickingTotalsComputedEvent  = "picking.totals_computed"
)

type MoveQuantityChanged struct {
	MoveID      int64           `json:"move_id"`
	PickingID   int64           `json:"picking_id"`
	OldQuantity decimal.Decimal `json:"old_quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
}

type SaleLinePricingChanged struct {
	SaleLineID   int64           `json:"sale_line_id"`
	OldPriceUnit decimal.Decimal `json:"old_price_unit"`
	NewPriceUnit decimal.Decimal `json:"new_price_unit"`
	OldDiscount  decimal.Decimal `json:"old_discount"`
	NewDiscount  decimal.Decimal `json:"new_discount"`
	Taxes        []string        `json:"taxes"`
}

type PickingTotalsComputed struct {
	PickingID     int64               `json:"picking_id"`
	PickingName   string              `json:"picking_name"`
	AmountUntaxed decimal.Decimal     `json:"amount_untaxed"`
	AmountTax     decimal.Decimal     `json:"amount_tax"`
	AmountTotal   decimal.Decimal     `json:"amount_total"`
	TaxTotals     *entities.TaxTotals `json:"tax_totals,omitempty"`
}

func MoveStream(moveID int64) string {
	return fmt.Sprintf("move/%d", moveID)
}

func SaleLineStream(saleLineID int64) string {
	return fmt.Sprintf("sale_line/%d", saleLineID)
}

func PickingStream(pickingName string) string {
	return "picking/" + pickingName
}

func NewMoveQuantityChangedEvent(move *entities.Move, oldQuantity decimal.Decimal) Event {
	data := MoveQuantityChanged{
		MoveID:      move.ID,
		OldQuantity: oldQuantity,
		NewQuantity: move.Quantity,
	}
	if move.Picking != nil {
		data.PickingID = move.Picking.ID
	}
	return NewEvent(MoveQuantityChangedEvent, MoveStream(move.ID), data)
}

func NewSaleLinePricingChangedEvent(
	line *entities.SaleOrderLine,
	oldPriceUnit, oldDiscount decimal.Decimal,
) Event {
	return NewEvent(SaleLinePricingChangedEvent, SaleLineStream(line.ID), SaleLinePricingChanged{
		SaleLineID:   line.ID,
		OldPriceUnit: oldPriceUnit,
		NewPriceUnit: line.PriceUnit,
		OldDiscount:  oldDiscount,
		NewDiscount:  line.Discount,
		Taxes:        line.Taxes.Names(),
	})
}

func NewPickingTotalsComputedEvent(picking *entities.Picking) Event {
	return NewEvent(PickingTotalsComputedEvent, PickingStream(picking.Name), PickingTotalsComputed{
		PickingID:     picking.ID,
		PickingName:   picking.Name,
		AmountUntaxed: picking.AmountUntaxed,
		AmountTax:     picking.AmountTax,
		AmountTotal:   picking.AmountTotal,
		TaxTotals:     picking.TaxTotals,
	})
}
