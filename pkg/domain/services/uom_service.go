package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

// ErrIncompatibleUoM is returned when converting between units of different categories
var ErrIncompatibleUoM = errors.New("incompatible units of measure")

// UoMService converts quantities between units of measure and into packagings
type UoMService struct{}

// NewUoMService creates a new unit of measure service
func NewUoMService() *UoMService {
	return &UoMService{}
}

// ConvertQuantity converts qty expressed in from into to. The result is rounded
// up (away from zero) to the precision of the target unit. A missing source unit
// means the quantity is already expressed in the target unit.
func (s *UoMService) ConvertQuantity(qty decimal.Decimal, from, to *entities.UoM) (decimal.Decimal, error) {
	if from == nil || qty.IsZero() {
		return qty, nil
	}
	if err := to.Validate(); err != nil {
		return decimal.Zero, err
	}

	amount := qty
	if from.ID != to.ID {
		if from.Category != to.Category {
			return decimal.Zero, fmt.Errorf("%w: %s (%s) to %s (%s)",
				ErrIncompatibleUoM, from.Name, from.Category, to.Name, to.Category)
		}
		if err := from.Validate(); err != nil {
			return decimal.Zero, err
		}
		amount = qty.Mul(from.Ratio).Div(to.Ratio)
	}

	return roundUp(amount, to.Rounding), nil
}

// ComputePackagingQty expresses qty (in qtyUoM) as a number of packagings, rounded
// half away from zero to the precision of the packaging unit
func (s *UoMService) ComputePackagingQty(
	qty decimal.Decimal,
	qtyUoM *entities.UoM,
	packaging *entities.Packaging,
) (decimal.Decimal, error) {
	if packaging == nil || !packaging.Qty.IsPositive() {
		return decimal.Zero, nil
	}

	productQty := qty
	if qtyUoM != nil && packaging.UoM() != nil {
		converted, err := s.ConvertQuantity(qty, qtyUoM, packaging.UoM())
		if err != nil {
			return decimal.Zero, err
		}
		productQty = converted
	}

	packs := productQty.Div(packaging.Qty)
	if uom := packaging.UoM(); uom != nil && uom.Rounding.IsPositive() {
		packs = packs.Div(uom.Rounding).Round(0).Mul(uom.Rounding)
	}
	return packs, nil
}

func roundUp(value, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return value
	}
	steps := value.Div(step)
	if steps.IsNegative() {
		steps = steps.Floor()
	} else {
		steps = steps.Ceil()
	}
	return steps.Mul(step)
}
