// Package aggregation merges the detailed lines of delivery moves into the
// report lines of a delivery slip.
package aggregation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/stockvalued/pkg/application/dto"
	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

// ErrIncompleteLine is returned for move lines without a move or product
var ErrIncompleteLine = errors.New("incomplete move line")

// UoMConverter converts quantities between units of measure
type UoMConverter interface {
	ConvertQuantity(qty decimal.Decimal, from, to *entities.UoM) (decimal.Decimal, error)
}

// PackagingConverter expresses quantities as a number of packagings
type PackagingConverter interface {
	ComputePackagingQty(qty decimal.Decimal, qtyUoM *entities.UoM, packaging *entities.Packaging) (decimal.Decimal, error)
}

// BackorderSource returns the direct backorders of a picking
type BackorderSource interface {
	Backorders(picking *entities.Picking) ([]*entities.Picking, error)
}

// Valuator prices a move
type Valuator interface {
	Value(move *entities.Move) (dto.MoveValuation, error)
}

// Options controls how lines are aggregated
type Options struct {
	// Strict only sums what the lines carry: no ordered quantity
	// reconciliation and no recovery of cancelled moves
	Strict bool
	// ExceptPackage skips lines put in a result package
	ExceptPackage bool
}

// Engine aggregates move lines through injected collaborators
type Engine struct {
	uom        UoMConverter
	packaging  PackagingConverter
	backorders BackorderSource
	valuator   Valuator
	logger     *zap.Logger
}

// NewEngine creates an aggregation engine. A nil logger disables logging.
func NewEngine(
	uom UoMConverter,
	packaging PackagingConverter,
	backorders BackorderSource,
	valuator Valuator,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		uom:        uom,
		packaging:  packaging,
		backorders: backorders,
		valuator:   valuator,
		logger:     logger,
	}
}

// lineProperties are the report attributes derived from a move
type lineProperties struct {
	key         entities.AggregationKey
	name        string
	description string
	uom         *entities.UoM
	packaging   *entities.Packaging
}

// aggregationRun holds the state of one Aggregate call
type aggregationRun struct {
	engine     *Engine
	result     *dto.Aggregation
	valuations map[int64]dto.MoveValuation
}

// BackorderChain returns every picking reachable from pickings through
// backorder links: backorders, their backorders and so on. The starting
// pickings are not part of the result. Order is first seen, breadth first.
func (e *Engine) BackorderChain(pickings []*entities.Picking) ([]*entities.Picking, error) {
	visited := make(map[int64]bool, len(pickings))
	for _, picking := range pickings {
		visited[picking.ID] = true
	}

	var chain []*entities.Picking
	queue := append([]*entities.Picking(nil), pickings...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		successors, err := e.backorders.Backorders(current)
		if err != nil {
			return nil, err
		}
		for _, successor := range successors {
			if visited[successor.ID] {
				continue
			}
			visited[successor.ID] = true
			chain = append(chain, successor)
			queue = append(queue, successor)
		}
	}

	return chain, nil
}

// Aggregate merges lines sharing product, description, unit, packaging and
// taxes into report lines. Lots and serial numbers are ignored.
//
// Outside strict mode the ordered quantity of each report line is rebuilt from
// the backorder chain so that partially delivered moves still show what was
// originally ordered, and moves cancelled without anything done are recovered.
func (e *Engine) Aggregate(lines []*entities.MoveLine, opts Options) (*dto.Aggregation, error) {
	run := &aggregationRun{
		engine:     e,
		result:     dto.NewAggregation(),
		valuations: make(map[int64]dto.MoveValuation),
	}

	pickings := linePickings(lines)
	chain, err := e.BackorderChain(pickings)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		if opts.ExceptPackage && line.ResultPackage != "" {
			continue
		}
		if line.Move == nil || line.Move.Product == nil {
			return nil, fmt.Errorf("%w: line %d", ErrIncompleteLine, line.ID)
		}
		if err := run.addLine(line, chain, opts); err != nil {
			return nil, err
		}
	}

	if !opts.Strict {
		if err := run.addCancelledMoves(append(pickings, chain...)); err != nil {
			return nil, err
		}
	}

	if err := run.computePackagingQtys(); err != nil {
		return nil, err
	}

	e.logger.Debug("aggregated move lines",
		zap.Int("input_lines", len(lines)),
		zap.Int("report_lines", run.result.Len()),
		zap.Int("backorders", len(chain)),
		zap.Bool("strict", opts.Strict),
	)

	return run.result, nil
}

func (r *aggregationRun) addLine(line *entities.MoveLine, chain []*entities.Picking, opts Options) error {
	move := line.Move
	props := properties(move, line)

	quantity, err := r.engine.uom.ConvertQuantity(line.Quantity, line.UoM, props.uom)
	if err != nil {
		return err
	}

	if existing, ok := r.result.Get(props.key); ok {
		existing.Quantity = decimal.NewNullDecimal(existing.QuantityOrZero().Add(quantity))
		existing.QtyOrdered = existing.QtyOrdered.Add(quantity)
		return nil
	}

	qtyOrdered := decimal.Zero
	if len(chain) > 0 && !opts.Strict {
		qtyOrdered, err = r.reconcileOrdered(line, props, chain)
		if err != nil {
			return err
		}
	}
	if qtyOrdered.IsZero() {
		qtyOrdered = quantity
	}

	entry, err := r.newLine(move, line.Product, props)
	if err != nil {
		return err
	}
	entry.Quantity = decimal.NewNullDecimal(quantity)
	entry.QtyOrdered = qtyOrdered
	r.result.Add(entry)

	return nil
}

// reconcileOrdered rebuilds the ordered quantity of a new report line: the
// move demand, plus the demand of backorder moves carrying lines for the same
// key, minus what the other lines of the move will add on their own
func (r *aggregationRun) reconcileOrdered(
	line *entities.MoveLine,
	props lineProperties,
	chain []*entities.Picking,
) (decimal.Decimal, error) {
	ordered := line.Move.ProductUoMQty

	for _, picking := range chain {
		for _, move := range picking.Moves {
			if len(move.Lines) == 0 {
				continue
			}
			if properties(move, nil).key != props.key {
				continue
			}
			ordered = ordered.Add(move.ProductUoMQty)
		}
	}

	for _, sibling := range line.Move.Lines {
		if sibling == line {
			continue
		}
		converted, err := r.engine.uom.ConvertQuantity(sibling.Quantity, sibling.UoM, props.uom)
		if err != nil {
			return decimal.Zero, err
		}
		ordered = ordered.Sub(converted)
	}

	return ordered, nil
}

// addCancelledMoves adds the demand of moves cancelled with nothing done. They
// carry no lines once a partially processed transfer has been split.
func (r *aggregationRun) addCancelledMoves(pickings []*entities.Picking) error {
	for _, move := range movesOf(pickings) {
		if !isCancelledUntouched(move) {
			continue
		}

		props := properties(move, nil)
		if existing, ok := r.result.Get(props.key); ok {
			existing.QtyOrdered = existing.QtyOrdered.Add(move.ProductUoMQty)
			continue
		}

		entry, err := r.newLine(move, move.Product, props)
		if err != nil {
			return err
		}
		entry.Quantity = decimal.NullDecimal{}
		entry.QtyOrdered = move.ProductUoMQty
		r.result.Add(entry)
	}
	return nil
}

func (r *aggregationRun) computePackagingQtys() error {
	for _, entry := range r.result.Ordered() {
		if entry.Packaging == nil {
			continue
		}

		packagingQty, err := r.engine.packaging.ComputePackagingQty(entry.QtyOrdered, entry.ProductUoM, entry.Packaging)
		if err != nil {
			return err
		}
		packagingQuantity, err := r.engine.packaging.ComputePackagingQty(entry.QuantityOrZero(), entry.ProductUoM, entry.Packaging)
		if err != nil {
			return err
		}

		entry.PackagingQty = packagingQty
		entry.PackagingQuantity = packagingQuantity
	}
	return nil
}

// newLine starts a report line priced from move
func (r *aggregationRun) newLine(move *entities.Move, product *entities.Product, props lineProperties) (*dto.AggregatedLine, error) {
	valuation, err := r.value(move)
	if err != nil {
		return nil, err
	}
	if product == nil {
		product = move.Product
	}

	return &dto.AggregatedLine{
		Key:           props.key,
		Product:       product,
		Name:          props.name,
		Description:   props.description,
		ProductUoM:    props.uom,
		Packaging:     props.packaging,
		PriceUnit:     valuation.PriceUnit,
		Discount:      valuation.Discount,
		Taxes:         valuation.Taxes,
		PriceSubtotal: valuation.PriceSubtotal,
	}, nil
}

func (r *aggregationRun) value(move *entities.Move) (dto.MoveValuation, error) {
	if valuation, ok := r.valuations[move.ID]; ok {
		return valuation, nil
	}
	valuation, err := r.engine.valuator.Value(move)
	if err != nil {
		return dto.MoveValuation{}, err
	}
	r.valuations[move.ID] = valuation
	return valuation, nil
}

// properties derives the report attributes of move. The move unit wins over
// the line unit; a description repeating the product name is dropped.
func properties(move *entities.Move, line *entities.MoveLine) lineProperties {
	uom := move.UoM
	if uom == nil && line != nil {
		uom = line.UoM
	}

	name := move.Product.DisplayName()
	description := move.DescriptionPicking
	if description == name || description == move.Product.Name {
		description = ""
	}

	key := entities.AggregationKey{
		ProductID:   move.Product.ID,
		DisplayName: name,
		Description: description,
		Taxes:       move.Taxes().Key(),
	}
	if uom != nil {
		key.UoMID = uom.ID
	}
	if move.Packaging != nil {
		key.PackagingID = move.Packaging.ID
	}

	return lineProperties{
		key:         key,
		name:        name,
		description: description,
		uom:         uom,
		packaging:   move.Packaging,
	}
}

func isCancelledUntouched(move *entities.Move) bool {
	return move.Product != nil &&
		move.State == entities.MoveCancelled &&
		!move.ProductUoMQty.IsZero() &&
		move.UoM.IsZero(move.Quantity)
}

// linePickings returns the distinct pickings of lines in first-seen order
func linePickings(lines []*entities.MoveLine) []*entities.Picking {
	seen := make(map[int64]bool)
	var pickings []*entities.Picking
	for _, line := range lines {
		if line.Move == nil || line.Move.Picking == nil {
			continue
		}
		picking := line.Move.Picking
		if seen[picking.ID] {
			continue
		}
		seen[picking.ID] = true
		pickings = append(pickings, picking)
	}
	return pickings
}

func movesOf(pickings []*entities.Picking) []*entities.Move {
	seen := make(map[int64]bool)
	var moves []*entities.Move
	for _, picking := range pickings {
		if seen[picking.ID] {
			continue
		}
		seen[picking.ID] = true
		moves = append(moves, picking.Moves...)
	}
	return moves
}
