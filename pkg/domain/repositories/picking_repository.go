package repositories

import (
	"errors"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

var (
	// ErrPickingNotFound is returned when no picking matches the lookup
	ErrPickingNotFound = errors.New("picking not found")
	// ErrMoveNotFound is returned when no move matches the lookup
	ErrMoveNotFound = errors.New("move not found")
	// ErrSaleLineNotFound is returned when no sale order line matches the lookup
	ErrSaleLineNotFound = errors.New("sale order line not found")
)

// PickingRepository provides access to delivery pickings and their moves
type PickingRepository interface {
	GetPicking(id int64) (*entities.Picking, error)
	GetPickingByName(name string) (*entities.Picking, error)
	GetAllPickings() ([]*entities.Picking, error)
	LoadPickings(pickings []*entities.Picking) error

	// Backorders returns the direct backorders of a picking, whether linked
	// through the picking itself or through BackorderOf on the successor.
	Backorders(picking *entities.Picking) ([]*entities.Picking, error)

	GetMove(id int64) (*entities.Move, error)
	GetSaleLine(id int64) (*entities.SaleOrderLine, error)

	// FindPickingsBySaleLine returns every picking holding a move of the sale line
	FindPickingsBySaleLine(saleLineID int64) ([]*entities.Picking, error)
}
