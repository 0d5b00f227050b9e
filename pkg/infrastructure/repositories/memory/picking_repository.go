package memory

import (
	"fmt"
	"sort"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
	"github.com/vsinha/stockvalued/pkg/domain/repositories"
)

// PickingRepository provides in-memory picking storage
type PickingRepository struct {
	pickings   map[int64]*entities.Picking
	byName     map[string]*entities.Picking
	moves      map[int64]*entities.Move
	saleLines  map[int64]*entities.SaleOrderLine
	backorders map[int64][]*entities.Picking
	bySaleLine map[int64][]*entities.Picking
}

// NewPickingRepository creates a new in-memory picking repository
func NewPickingRepository(expectedPickings int) *PickingRepository {
	return &PickingRepository{
		pickings:   make(map[int64]*entities.Picking, expectedPickings),
		byName:     make(map[string]*entities.Picking, expectedPickings),
		moves:      make(map[int64]*entities.Move),
		saleLines:  make(map[int64]*entities.SaleOrderLine),
		backorders: make(map[int64][]*entities.Picking),
		bySaleLine: make(map[int64][]*entities.Picking),
	}
}

// Verify interface compliance
var _ repositories.PickingRepository = (*PickingRepository)(nil)

// LoadPickings loads pickings into the repository
func (r *PickingRepository) LoadPickings(pickings []*entities.Picking) error {
	for _, picking := range pickings {
		if err := r.SavePicking(picking); err != nil {
			return err
		}
	}
	return nil
}

// SavePicking stores a picking and indexes its moves, sale lines and backorder links
func (r *PickingRepository) SavePicking(picking *entities.Picking) error {
	if picking == nil {
		return fmt.Errorf("cannot save nil picking")
	}
	if existing, ok := r.byName[picking.Name]; ok && existing.ID != picking.ID {
		return fmt.Errorf("picking name %s already used by picking %d", picking.Name, existing.ID)
	}

	r.pickings[picking.ID] = picking
	r.byName[picking.Name] = picking

	for _, move := range picking.Moves {
		r.moves[move.ID] = move
		if move.SaleLine != nil {
			r.saleLines[move.SaleLine.ID] = move.SaleLine
			r.bySaleLine[move.SaleLine.ID] = appendUnique(r.bySaleLine[move.SaleLine.ID], picking)
		}
	}

	for _, backorder := range picking.Backorders {
		r.backorders[picking.ID] = appendUnique(r.backorders[picking.ID], backorder)
	}
	if picking.BackorderOf != nil {
		parent := picking.BackorderOf.ID
		r.backorders[parent] = appendUnique(r.backorders[parent], picking)
	}

	return nil
}

// GetPicking returns the picking with the given ID
func (r *PickingRepository) GetPicking(id int64) (*entities.Picking, error) {
	picking, ok := r.pickings[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", repositories.ErrPickingNotFound, id)
	}
	return picking, nil
}

// GetPickingByName returns the picking with the given reference
func (r *PickingRepository) GetPickingByName(name string) (*entities.Picking, error) {
	picking, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrPickingNotFound, name)
	}
	return picking, nil
}

// GetAllPickings returns all pickings ordered by ID
func (r *PickingRepository) GetAllPickings() ([]*entities.Picking, error) {
	pickings := make([]*entities.Picking, 0, len(r.pickings))
	for _, picking := range r.pickings {
		pickings = append(pickings, picking)
	}
	sort.Slice(pickings, func(i, j int) bool {
		return pickings[i].ID < pickings[j].ID
	})
	return pickings, nil
}

// Backorders returns the direct backorders of a picking
func (r *PickingRepository) Backorders(picking *entities.Picking) ([]*entities.Picking, error) {
	if picking == nil {
		return nil, nil
	}
	result := append([]*entities.Picking(nil), r.backorders[picking.ID]...)
	// links added on the entity after it was saved
	for _, backorder := range picking.Backorders {
		result = appendUnique(result, backorder)
	}
	return result, nil
}

// GetMove returns the move with the given ID
func (r *PickingRepository) GetMove(id int64) (*entities.Move, error) {
	move, ok := r.moves[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", repositories.ErrMoveNotFound, id)
	}
	return move, nil
}

// GetSaleLine returns the sale order line with the given ID
func (r *PickingRepository) GetSaleLine(id int64) (*entities.SaleOrderLine, error) {
	line, ok := r.saleLines[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", repositories.ErrSaleLineNotFound, id)
	}
	return line, nil
}

// FindPickingsBySaleLine returns every picking holding a move of the sale line
func (r *PickingRepository) FindPickingsBySaleLine(saleLineID int64) ([]*entities.Picking, error) {
	return append([]*entities.Picking(nil), r.bySaleLine[saleLineID]...), nil
}

func appendUnique(pickings []*entities.Picking, picking *entities.Picking) []*entities.Picking {
	for _, p := range pickings {
		if p.ID == picking.ID {
			return pickings
		}
	}
	return append(pickings, picking)
}
