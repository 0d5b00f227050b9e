// Package slip assembles everything a delivery slip shows.
package slip

import (
	"go.uber.org/zap"

	"github.com/vsinha/stockvalued/pkg/application/dto"
	"github.com/vsinha/stockvalued/pkg/application/services/aggregation"
	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

// Aggregator merges move lines into report lines
type Aggregator interface {
	BackorderChain(pickings []*entities.Picking) ([]*entities.Picking, error)
	Aggregate(lines []*entities.MoveLine, opts aggregation.Options) (*dto.Aggregation, error)
}

// TotalsApplier computes and stores the totals of a picking
type TotalsApplier interface {
	Apply(picking *entities.Picking) (*dto.PickingTotals, error)
}

// Valuator prices moves
type Valuator interface {
	ValueAll(moves []*entities.Move) ([]dto.MoveValuation, error)
}

// Service builds delivery slips
type Service struct {
	aggregator Aggregator
	totals     TotalsApplier
	valuator   Valuator
	logger     *zap.Logger
}

// NewService creates a slip service. A nil logger disables logging.
func NewService(aggregator Aggregator, totals TotalsApplier, valuator Valuator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{aggregator: aggregator, totals: totals, valuator: valuator, logger: logger}
}

// Build computes the slip of picking. Loose lines are aggregated with their
// ordered quantities reconciled; packaged lines are listed per package as
// they were packed.
func (s *Service) Build(picking *entities.Picking) (*dto.DeliverySlip, error) {
	totals, err := s.totals.Apply(picking)
	if err != nil {
		return nil, err
	}

	valuations, err := s.valuator.ValueAll(picking.Moves)
	if err != nil {
		return nil, err
	}

	moveLines := picking.MoveLines()
	loose, err := s.aggregator.Aggregate(moveLines, aggregation.Options{ExceptPackage: true})
	if err != nil {
		return nil, err
	}

	packages, err := s.packageSections(moveLines)
	if err != nil {
		return nil, err
	}

	chain, err := s.aggregator.BackorderChain([]*entities.Picking{picking})
	if err != nil {
		return nil, err
	}
	backorderNames := make([]string, 0, len(chain))
	for _, backorder := range chain {
		backorderNames = append(backorderNames, backorder.Name)
	}

	slip := &dto.DeliverySlip{
		PickingID:      picking.ID,
		PickingName:    picking.Name,
		Valued:         picking.DeliveryReportValued(),
		Currency:       picking.Currency(),
		Lines:          loose.Ordered(),
		Packages:       packages,
		Valuations:     valuations,
		Totals:         totals,
		BackorderNames: backorderNames,
	}
	if picking.Partner != nil {
		slip.PartnerName = picking.Partner.Name
	}
	if picking.SaleOrder != nil {
		slip.SaleOrderName = picking.SaleOrder.Name
	}

	s.logger.Debug("built delivery slip",
		zap.String("picking", picking.Name),
		zap.Int("lines", len(slip.Lines)),
		zap.Int("packages", len(slip.Packages)),
		zap.Bool("valued", slip.Valued),
	)

	return slip, nil
}

// packageSections aggregates the lines of each result package, in the order
// packages first appear
func (s *Service) packageSections(moveLines []*entities.MoveLine) ([]dto.PackageSection, error) {
	byPackage := make(map[string][]*entities.MoveLine)
	var order []string
	for _, line := range moveLines {
		if line.ResultPackage == "" {
			continue
		}
		if _, ok := byPackage[line.ResultPackage]; !ok {
			order = append(order, line.ResultPackage)
		}
		byPackage[line.ResultPackage] = append(byPackage[line.ResultPackage], line)
	}

	sections := make([]dto.PackageSection, 0, len(order))
	for _, name := range order {
		aggregated, err := s.aggregator.Aggregate(byPackage[name], aggregation.Options{Strict: true})
		if err != nil {
			return nil, err
		}
		sections = append(sections, dto.PackageSection{Package: name, Lines: aggregated.Ordered()})
	}
	return sections, nil
}
