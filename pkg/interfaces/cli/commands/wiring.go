package commands

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/stockvalued/pkg/application/services/aggregation"
	"github.com/vsinha/stockvalued/pkg/application/services/recompute"
	"github.com/vsinha/stockvalued/pkg/application/services/slip"
	"github.com/vsinha/stockvalued/pkg/application/services/totals"
	"github.com/vsinha/stockvalued/pkg/application/services/valuation"
	"github.com/vsinha/stockvalued/pkg/domain/services"
	"github.com/vsinha/stockvalued/pkg/domain/services/tax"
	"github.com/vsinha/stockvalued/pkg/infrastructure/config"
	"github.com/vsinha/stockvalued/pkg/infrastructure/events"
	"github.com/vsinha/stockvalued/pkg/infrastructure/persistence"
	"github.com/vsinha/stockvalued/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/stockvalued/pkg/infrastructure/repositories/memory"
)

// deliveryServices is the service graph shared by the commands
type deliveryServices struct {
	pickings  *memory.PickingRepository
	events    *events.InMemoryEventStore
	totals    *totals.Service
	slips     *slip.Service
	recompute *recompute.Service
	snapshots *persistence.Store
}

// loadServices loads a scenario directory and wires the services around it.
// The snapshot store is opened when enabled in app; Close releases it.
func loadServices(scenarioDir string, app *config.Config, logger *zap.Logger) (*deliveryServices, error) {
	scenario, err := csv.NewLoader().LoadScenario(scenarioDir)
	if err != nil {
		return nil, fmt.Errorf("error loading scenario: %w", err)
	}
	logger.Info("scenario loaded",
		zap.String("dir", scenarioDir),
		zap.Int("pickings", len(scenario.Pickings)),
		zap.Int("products", len(scenario.Products)),
	)

	pickingRepo := memory.NewPickingRepository(len(scenario.Pickings))
	if err := pickingRepo.LoadPickings(scenario.Pickings); err != nil {
		return nil, fmt.Errorf("failed to load pickings into repository: %w", err)
	}

	taxEngine := tax.NewEngine(logger)
	uomService := services.NewUoMService()
	valuator := valuation.NewService(taxEngine, logger)
	aggregator := aggregation.NewEngine(uomService, uomService, pickingRepo, valuator, logger)
	totalsService := totals.NewService(taxEngine, valuator, logger)

	s := &deliveryServices{
		pickings: pickingRepo,
		events:   events.NewInMemoryEventStore(logger),
		totals:   totalsService,
		slips:    slip.NewService(aggregator, totalsService, valuator, logger),
	}

	var snapshots recompute.ValuationStore
	if app.Database.Enabled {
		store, err := persistence.Open(app.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(); err != nil {
			store.Close()
			return nil, err
		}
		s.snapshots = store
		snapshots = store
	}

	s.recompute, err = recompute.NewService(pickingRepo, s.events, totalsService, valuator, snapshots, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start recomputation: %w", err)
	}

	return s, nil
}

// Close releases the snapshot store, if any
func (s *deliveryServices) Close() error {
	if s.snapshots == nil {
		return nil
	}
	return s.snapshots.Close()
}
