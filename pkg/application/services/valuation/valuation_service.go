// Package valuation prices delivery moves from their sale order lines.
package valuation

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/stockvalued/pkg/application/dto"
	"github.com/vsinha/stockvalued/pkg/domain/entities"
	"github.com/vsinha/stockvalued/pkg/domain/services/tax"
)

// TaxEngine computes the tax details of a base line
type TaxEngine interface {
	AddTaxDetails(line *tax.BaseLine, company *entities.Company) error
}

// Service values moves through an injected tax engine
type Service struct {
	taxes  TaxEngine
	logger *zap.Logger
}

// NewService creates a valuation service. A nil logger disables logging.
func NewService(taxes TaxEngine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{taxes: taxes, logger: logger}
}

// Currency resolves the currency of a move: the sale order currency when the
// move comes from a sale line, the company currency otherwise
func (s *Service) Currency(move *entities.Move) *entities.Currency {
	if order := move.SaleOrder(); order != nil && order.Currency != nil {
		return order.Currency
	}
	if company := move.CompanyOrDefault(); company != nil {
		return company.Currency
	}
	return nil
}

// PrepareBaseLine converts a move into a base line for tax computation
func (s *Service) PrepareBaseLine(move *entities.Move) *tax.BaseLine {
	line := &tax.BaseLine{
		MoveID:    move.ID,
		Taxes:     move.Taxes(),
		Quantity:  move.Quantity,
		PriceUnit: move.PriceUnit(),
		Discount:  move.Discount(),
		Currency:  s.Currency(move),
		Rate:      decimal.NewFromInt(1),
	}

	if order := move.SaleOrder(); order != nil {
		line.Partner = order.Partner
		if order.Currency == nil && order.Company != nil {
			line.Currency = order.Company.Currency
		}
		if order.CurrencyRate.IsPositive() {
			line.Rate = order.CurrencyRate
		}
	}

	return line
}

// Value computes subtotal, tax and total of a move from its unrounded tax details
func (s *Service) Value(move *entities.Move) (dto.MoveValuation, error) {
	line := s.PrepareBaseLine(move)
	if err := s.taxes.AddTaxDetails(line, move.CompanyOrDefault()); err != nil {
		return dto.MoveValuation{}, err
	}

	subtotal := line.TaxDetails.RawTotalExcludedCurrency
	total := line.TaxDetails.RawTotalIncludedCurrency

	s.logger.Debug("valued move",
		zap.Int64("move_id", move.ID),
		zap.String("subtotal", subtotal.String()),
		zap.String("total", total.String()),
	)

	return dto.MoveValuation{
		MoveID:        move.ID,
		Currency:      line.Currency,
		PriceUnit:     move.PriceUnit(),
		Discount:      move.Discount(),
		Taxes:         move.Taxes(),
		PriceSubtotal: subtotal,
		PriceTax:      total.Sub(subtotal),
		PriceTotal:    total,
	}, nil
}

// ValueAll values every move, stopping at the first failure
func (s *Service) ValueAll(moves []*entities.Move) ([]dto.MoveValuation, error) {
	valuations := make([]dto.MoveValuation, 0, len(moves))
	for _, move := range moves {
		valuation, err := s.Value(move)
		if err != nil {
			return nil, err
		}
		valuations = append(valuations, valuation)
	}
	return valuations, nil
}
