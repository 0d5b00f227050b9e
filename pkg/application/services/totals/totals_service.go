// Package totals rolls move valuations up into picking amounts.
package totals

import (
	"go.uber.org/zap"

	"github.com/vsinha/stockvalued/pkg/application/dto"
	"github.com/vsinha/stockvalued/pkg/domain/entities"
	"github.com/vsinha/stockvalued/pkg/domain/services/tax"
)

// TaxEngine computes, rounds and summarizes tax details of base lines
type TaxEngine interface {
	AddTaxDetailsBatch(lines []*tax.BaseLine, company *entities.Company) error
	RoundTaxDetails(lines []*tax.BaseLine, company *entities.Company) error
	TotalsSummary(lines []*tax.BaseLine, currency *entities.Currency, company *entities.Company) (*entities.TaxTotals, error)
}

// BaseLinePreparer turns a move into a base line
type BaseLinePreparer interface {
	PrepareBaseLine(move *entities.Move) *tax.BaseLine
}

// Service computes document totals of pickings
type Service struct {
	taxes    TaxEngine
	preparer BaseLinePreparer
	logger   *zap.Logger
}

// NewService creates a totals service. A nil logger disables logging.
func NewService(taxes TaxEngine, preparer BaseLinePreparer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{taxes: taxes, preparer: preparer, logger: logger}
}

// Compute returns untaxed, tax and total amounts of the moves of picking not
// handled through a package level, rounded with the company policy
func (s *Service) Compute(picking *entities.Picking) (*dto.PickingTotals, error) {
	moves := picking.MovesWithoutPackage()
	lines := make([]*tax.BaseLine, 0, len(moves))
	for _, move := range moves {
		lines = append(lines, s.preparer.PrepareBaseLine(move))
	}

	company := picking.Company
	if err := s.taxes.AddTaxDetailsBatch(lines, company); err != nil {
		return nil, err
	}
	if err := s.taxes.RoundTaxDetails(lines, company); err != nil {
		return nil, err
	}

	currency := picking.Currency()
	summary, err := s.taxes.TotalsSummary(lines, currency, company)
	if err != nil {
		return nil, err
	}

	totals := &dto.PickingTotals{
		PickingID:     picking.ID,
		Currency:      currency,
		AmountUntaxed: summary.BaseAmountCurrency,
		AmountTax:     summary.TaxAmountCurrency,
		AmountTotal:   summary.TotalAmountCurrency,
		TaxTotals:     summary,
	}

	s.logger.Debug("computed picking totals",
		zap.String("picking", picking.Name),
		zap.Int("moves", len(moves)),
		zap.String("untaxed", totals.AmountUntaxed.String()),
		zap.String("tax", totals.AmountTax.String()),
		zap.String("total", totals.AmountTotal.String()),
	)

	return totals, nil
}

// Apply computes the totals of picking and stores them on it
func (s *Service) Apply(picking *entities.Picking) (*dto.PickingTotals, error) {
	totals, err := s.Compute(picking)
	if err != nil {
		return nil, err
	}

	picking.AmountUntaxed = totals.AmountUntaxed
	picking.AmountTax = totals.AmountTax
	picking.AmountTotal = totals.AmountTotal
	picking.TaxTotals = totals.TaxTotals

	return totals, nil
}
