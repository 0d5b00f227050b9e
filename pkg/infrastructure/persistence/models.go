package persistence

import (
	"time"

	"github.com/shopspring/decimal"
)

// PickingTotalsSnapshot records the totals of a picking at computation time
type PickingTotalsSnapshot struct {
	ID            string                `gorm:"primaryKey;size:36"`
	PickingID     int64                 `gorm:"not null;index"`
	PickingName   string                `gorm:"not null"`
	Currency      string                `gorm:"not null;size:3"`
	AmountUntaxed decimal.Decimal       `gorm:"type:numeric(20,6);not null"`
	AmountTax     decimal.Decimal       `gorm:"type:numeric(20,6);not null"`
	AmountTotal   decimal.Decimal       `gorm:"type:numeric(20,6);not null"`
	TaxTotals     string                `gorm:"type:text"` // json encoded tax summary
	Moves         []MoveValuationRecord `gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time             `gorm:"index"`
}

// MoveValuationRecord is the valuation of one move inside a snapshot
type MoveValuationRecord struct {
	ID            uint            `gorm:"primaryKey"`
	SnapshotID    string          `gorm:"not null;index;size:36"`
	MoveID        int64           `gorm:"not null"`
	PriceUnit     decimal.Decimal `gorm:"type:numeric(20,6)"`
	Discount      decimal.Decimal `gorm:"type:numeric(20,6)"`
	Taxes         string
	PriceSubtotal decimal.Decimal `gorm:"type:numeric(20,6)"`
	PriceTax      decimal.Decimal `gorm:"type:numeric(20,6)"`
	PriceTotal    decimal.Decimal `gorm:"type:numeric(20,6)"`
}
