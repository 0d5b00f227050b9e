// Package persistence stores valuation snapshots of pickings with gorm.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vsinha/stockvalued/pkg/application/dto"
	"github.com/vsinha/stockvalued/pkg/domain/entities"
	"github.com/vsinha/stockvalued/pkg/infrastructure/config"
)

// ErrSnapshotNotFound is returned when a picking has no stored snapshot
var ErrSnapshotNotFound = errors.New("valuation snapshot not found")

// Store persists picking totals and move valuations
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the configured database
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(normalizeDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return NewStore(db, log), nil
}

// NewStore wraps an open connection. A nil logger disables logging.
func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, logger: log}
}

// Migrate creates or updates the snapshot tables
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&PickingTotalsSnapshot{}, &MoveValuationRecord{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SavePickingTotals stores the totals of picking along with the valuation of
// its moves and returns the snapshot ID
func (s *Store) SavePickingTotals(
	ctx context.Context,
	picking *entities.Picking,
	totals *dto.PickingTotals,
	valuations []dto.MoveValuation,
) (string, error) {
	taxTotals, err := json.Marshal(totals.TaxTotals)
	if err != nil {
		return "", fmt.Errorf("encode tax totals: %w", err)
	}

	snapshot := &PickingTotalsSnapshot{
		ID:            uuid.NewString(),
		PickingID:     picking.ID,
		PickingName:   picking.Name,
		AmountUntaxed: totals.AmountUntaxed,
		AmountTax:     totals.AmountTax,
		AmountTotal:   totals.AmountTotal,
		TaxTotals:     string(taxTotals),
	}
	if totals.Currency != nil {
		snapshot.Currency = totals.Currency.Name
	}
	for _, v := range valuations {
		snapshot.Moves = append(snapshot.Moves, MoveValuationRecord{
			SnapshotID:    snapshot.ID,
			MoveID:        v.MoveID,
			PriceUnit:     v.PriceUnit,
			Discount:      v.Discount,
			Taxes:         strings.Join(v.Taxes.Names(), ","),
			PriceSubtotal: v.PriceSubtotal,
			PriceTax:      v.PriceTax,
			PriceTotal:    v.PriceTotal,
		})
	}

	if err := s.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return "", fmt.Errorf("save snapshot of %s: %w", picking.Name, err)
	}

	s.logger.Info("stored valuation snapshot",
		zap.String("snapshot_id", snapshot.ID),
		zap.String("picking", picking.Name),
		zap.String("total", snapshot.AmountTotal.String()),
	)
	return snapshot.ID, nil
}

// LatestForPicking returns the most recent snapshot of a picking
func (s *Store) LatestForPicking(ctx context.Context, pickingID int64) (*PickingTotalsSnapshot, error) {
	var snapshot PickingTotalsSnapshot
	err := s.db.WithContext(ctx).
		Preload("Moves", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("picking_id = ?", pickingID).
		Order("created_at DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: picking %d", ErrSnapshotNotFound, pickingID)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot of picking %d: %w", pickingID, err)
	}
	return &snapshot, nil
}

// DecodeTaxTotals returns the tax summary stored in a snapshot
func (p *PickingTotalsSnapshot) DecodeTaxTotals() (*entities.TaxTotals, error) {
	if p.TaxTotals == "" || p.TaxTotals == "null" {
		return nil, nil
	}
	var totals entities.TaxTotals
	if err := json.Unmarshal([]byte(p.TaxTotals), &totals); err != nil {
		return nil, fmt.Errorf("decode tax totals: %w", err)
	}
	return &totals, nil
}

// normalizeDSN trims quotes and whitespace and defaults sslmode for key=value DSNs
func normalizeDSN(raw string) string {
	s := strings.Trim(strings.TrimSpace(raw), "\"'")
	lower := strings.ToLower(s)
	if s == "" || strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return s
	}
	cleaned := strings.Join(strings.Fields(s), " ")
	if strings.Contains(cleaned, "=") && !strings.Contains(strings.ToLower(cleaned), "sslmode=") {
		cleaned += " sslmode=disable"
	}
	return cleaned
}
