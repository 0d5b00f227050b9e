// Package recompute keeps picking totals current when quantities or sale
// line pricing change.
package recompute

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/stockvalued/pkg/application/dto"
	"github.com/vsinha/stockvalued/pkg/domain/entities"
	"github.com/vsinha/stockvalued/pkg/infrastructure/events"
)

// ErrNegativeQuantity is returned when a move quantity would become negative
var ErrNegativeQuantity = errors.New("negative quantity")

// PickingSource looks up the records touched by a change
type PickingSource interface {
	GetMove(id int64) (*entities.Move, error)
	GetSaleLine(id int64) (*entities.SaleOrderLine, error)
	FindPickingsBySaleLine(saleLineID int64) ([]*entities.Picking, error)
}

// TotalsApplier computes and stores the totals of a picking
type TotalsApplier interface {
	Apply(picking *entities.Picking) (*dto.PickingTotals, error)
}

// Valuator prices moves
type Valuator interface {
	ValueAll(moves []*entities.Move) ([]dto.MoveValuation, error)
}

// ValuationStore persists computed totals
type ValuationStore interface {
	SavePickingTotals(
		ctx context.Context,
		picking *entities.Picking,
		totals *dto.PickingTotals,
		valuations []dto.MoveValuation,
	) (string, error)
}

// Service applies changes and recomputes the affected pickings through
// events delivered by the store
type Service struct {
	pickings PickingSource
	store    events.EventStore
	totals   TotalsApplier
	valuator Valuator
	snapshot ValuationStore
	logger   *zap.Logger
}

// NewService creates the service and subscribes it to change events. The
// snapshot store is optional.
func NewService(
	pickings PickingSource,
	store events.EventStore,
	totals TotalsApplier,
	valuator Valuator,
	snapshot ValuationStore,
	logger *zap.Logger,
) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		pickings: pickings,
		store:    store,
		totals:   totals,
		valuator: valuator,
		snapshot: snapshot,
		logger:   logger,
	}

	if err := store.Subscribe(s.handledTypes(), s); err != nil {
		return nil, fmt.Errorf("subscribe recompute handler: %w", err)
	}
	return s, nil
}

func (s *Service) handledTypes() []string {
	return []string{events.MoveQuantityChangedEvent, events.SaleLinePricingChangedEvent}
}

// SetMoveQuantity changes the moved quantity of a move
func (s *Service) SetMoveQuantity(ctx context.Context, moveID int64, qty decimal.Decimal) error {
	if qty.IsNegative() {
		return fmt.Errorf("%w: move %d set to %s", ErrNegativeQuantity, moveID, qty)
	}
	move, err := s.pickings.GetMove(moveID)
	if err != nil {
		return err
	}

	old := move.Quantity
	move.Quantity = qty

	return s.store.AppendEvent(ctx, events.MoveStream(moveID), events.NewMoveQuantityChangedEvent(move, old))
}

// SetSaleLinePricing changes the unit price, discount and taxes of a sale order line
func (s *Service) SetSaleLinePricing(
	ctx context.Context,
	saleLineID int64,
	priceUnit, discount decimal.Decimal,
	taxes entities.TaxSet,
) error {
	line, err := s.pickings.GetSaleLine(saleLineID)
	if err != nil {
		return err
	}

	oldPrice, oldDiscount := line.PriceUnit, line.Discount
	line.PriceUnit = priceUnit
	line.Discount = discount
	line.Taxes = taxes

	event := events.NewSaleLinePricingChangedEvent(line, oldPrice, oldDiscount)
	return s.store.AppendEvent(ctx, events.SaleLineStream(saleLineID), event)
}

// CanHandle reports whether eventType triggers a recomputation
func (s *Service) CanHandle(eventType string) bool {
	for _, t := range s.handledTypes() {
		if t == eventType {
			return true
		}
	}
	return false
}

// Handle recomputes the pickings affected by a change event
func (s *Service) Handle(ctx context.Context, event events.Event) error {
	switch data := event.Data().(type) {
	case events.MoveQuantityChanged:
		move, err := s.pickings.GetMove(data.MoveID)
		if err != nil {
			return err
		}
		if move.Picking == nil {
			return nil
		}
		return s.RecomputePicking(ctx, move.Picking)

	case events.SaleLinePricingChanged:
		pickings, err := s.pickings.FindPickingsBySaleLine(data.SaleLineID)
		if err != nil {
			return err
		}
		for _, picking := range pickings {
			if err := s.RecomputePicking(ctx, picking); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unexpected %s event payload %T", event.Type(), event.Data())
	}
}

// RecomputePicking refreshes the totals of picking, stores a snapshot when a
// store is configured and announces the new totals
func (s *Service) RecomputePicking(ctx context.Context, picking *entities.Picking) error {
	totals, err := s.totals.Apply(picking)
	if err != nil {
		return err
	}

	if s.snapshot != nil {
		valuations, err := s.valuator.ValueAll(picking.MovesWithoutPackage())
		if err != nil {
			return err
		}
		if _, err := s.snapshot.SavePickingTotals(ctx, picking, totals, valuations); err != nil {
			return err
		}
	}

	s.logger.Info("recomputed picking totals",
		zap.String("picking", picking.Name),
		zap.String("untaxed", picking.AmountUntaxed.String()),
		zap.String("tax", picking.AmountTax.String()),
		zap.String("total", picking.AmountTotal.String()),
	)

	return s.store.AppendEvent(ctx, events.PickingStream(picking.Name), events.NewPickingTotalsComputedEvent(picking))
}
