package testing

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
	"github.com/vsinha/stockvalued/pkg/infrastructure/repositories/memory"
)

// Dec parses a decimal literal, panicking on malformed input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Catalog holds the reference data shared by delivery test scenarios
type Catalog struct {
	EUR      *entities.Currency
	USD      *entities.Currency
	Company  *entities.Company
	Customer *entities.Partner

	Units  *entities.UoM
	Dozens *entities.UoM
	Kg     *entities.UoM

	Desk     *entities.Product
	Chair    *entities.Product
	ChairBox *entities.Packaging

	VAT0  *entities.Tax
	VAT15 *entities.Tax

	nextID int64
}

// NewCatalog builds the default catalog: a EUR company rounding per line, a
// customer asking for valued delivery slips, two products and two taxes
func NewCatalog() *Catalog {
	eur := &entities.Currency{ID: 1, Name: "EUR", Symbol: "€", Rounding: Dec("0.01")}
	usd := &entities.Currency{ID: 2, Name: "USD", Symbol: "$", Rounding: Dec("0.01")}
	units := &entities.UoM{ID: 1, Name: "Units", Category: "Unit", Ratio: Dec("1"), Rounding: Dec("0.01")}
	dozens := &entities.UoM{ID: 2, Name: "Dozens", Category: "Unit", Ratio: Dec("12"), Rounding: Dec("0.01")}
	kg := &entities.UoM{ID: 3, Name: "kg", Category: "Weight", Ratio: Dec("1"), Rounding: Dec("0.001")}

	chair := &entities.Product{ID: 2, Name: "Conference Chair", UoM: units}

	return &Catalog{
		EUR:      eur,
		USD:      usd,
		Company:  &entities.Company{ID: 1, Name: "YourCompany", Currency: eur, TaxRounding: entities.RoundPerLine},
		Customer: &entities.Partner{ID: 1, Name: "Deco Addict", DeliveryReportValued: true},
		Units:    units,
		Dozens:   dozens,
		Kg:       kg,
		Desk:     &entities.Product{ID: 1, DefaultCode: "FURN_0789", Name: "Office Desk", UoM: units},
		Chair:    chair,
		ChairBox: &entities.Packaging{ID: 1, Name: "Box of 6", Product: chair, Qty: Dec("6")},
		VAT0:     &entities.Tax{ID: 1, Name: "0%", Sequence: 1, AmountType: entities.TaxPercent, Amount: Dec("0"), Group: "VAT 0%"},
		VAT15:    &entities.Tax{ID: 2, Name: "15%", Sequence: 1, AmountType: entities.TaxPercent, Amount: Dec("15"), Group: "VAT 15%"},
		nextID:   100,
	}
}

// NextID returns a fresh record ID
func (c *Catalog) NextID() int64 {
	c.nextID++
	return c.nextID
}

// SaleOrder creates a EUR sale order for the catalog customer
func (c *Catalog) SaleOrder(name string) *entities.SaleOrder {
	return &entities.SaleOrder{
		ID:           c.NextID(),
		Name:         name,
		Partner:      c.Customer,
		Company:      c.Company,
		Currency:     c.EUR,
		CurrencyRate: Dec("1"),
	}
}

// SaleLine creates a sale order line
func (c *Catalog) SaleLine(order *entities.SaleOrder, price, discount string, taxes ...*entities.Tax) *entities.SaleOrderLine {
	return &entities.SaleOrderLine{
		ID:        c.NextID(),
		Order:     order,
		PriceUnit: Dec(price),
		Discount:  Dec(discount),
		Taxes:     entities.TaxSet(taxes),
	}
}

// Picking creates an outgoing picking, linked to order when not nil
func (c *Catalog) Picking(name string, order *entities.SaleOrder) *entities.Picking {
	return &entities.Picking{
		ID:        c.NextID(),
		Name:      name,
		Partner:   c.Customer,
		Company:   c.Company,
		SaleOrder: order,
	}
}

// Move creates a move of product in its default unit and adds it to picking
func (c *Catalog) Move(
	picking *entities.Picking,
	product *entities.Product,
	demand, done string,
	state entities.MoveState,
	saleLine *entities.SaleOrderLine,
) *entities.Move {
	move := &entities.Move{
		ID:            c.NextID(),
		Company:       c.Company,
		Product:       product,
		UoM:           product.UoM,
		ProductUoMQty: Dec(demand),
		Quantity:      Dec(done),
		State:         state,
		SaleLine:      saleLine,
	}
	picking.AddMove(move)
	return move
}

// Line adds a detailed line of qty in the move unit
func (c *Catalog) Line(move *entities.Move, qty string) *entities.MoveLine {
	line := &entities.MoveLine{ID: c.NextID(), Quantity: Dec(qty)}
	move.AddLine(line)
	return line
}

// PartialBackorderScenario is a delivery of 10 desks where 5 were shipped and
// the backorder for the remaining 5 was cancelled without anything done
type PartialBackorderScenario struct {
	Catalog   *Catalog
	Repo      *memory.PickingRepository
	Order     *entities.SaleOrder
	SaleLine  *entities.SaleOrderLine
	Delivery  *entities.Picking
	Backorder *entities.Picking
	Shipped   *entities.Move
	Cancelled *entities.Move
}

// BuildPartialBackorderScenario builds the partial backorder scenario and loads
// both pickings into an in-memory repository
func BuildPartialBackorderScenario() *PartialBackorderScenario {
	c := NewCatalog()
	order := c.SaleOrder("S00042")
	saleLine := c.SaleLine(order, "100", "0", c.VAT0)

	delivery := c.Picking("WH/OUT/00001", order)
	shipped := c.Move(delivery, c.Desk, "5", "5", entities.MoveDone, saleLine)
	c.Line(shipped, "5")

	backorder := c.Picking("WH/OUT/00002", order)
	cancelled := c.Move(backorder, c.Desk, "5", "0", entities.MoveCancelled, saleLine)
	delivery.AddBackorder(backorder)

	repo := memory.NewPickingRepository(2)
	if err := repo.LoadPickings([]*entities.Picking{delivery, backorder}); err != nil {
		panic(err)
	}

	return &PartialBackorderScenario{
		Catalog:   c,
		Repo:      repo,
		Order:     order,
		SaleLine:  saleLine,
		Delivery:  delivery,
		Backorder: backorder,
		Shipped:   shipped,
		Cancelled: cancelled,
	}
}

// BuildSimpleDelivery builds a single picking shipping qty desks at price with
// the given taxes, loaded into an in-memory repository
func BuildSimpleDelivery(qty, price string, taxes ...*entities.Tax) (*Catalog, *memory.PickingRepository, *entities.Picking) {
	c := NewCatalog()
	order := c.SaleOrder("S00001")
	saleLine := c.SaleLine(order, price, "0", taxes...)

	picking := c.Picking("WH/OUT/00010", order)
	move := c.Move(picking, c.Desk, qty, qty, entities.MoveAssigned, saleLine)
	c.Line(move, qty)

	repo := memory.NewPickingRepository(1)
	if err := repo.SavePicking(picking); err != nil {
		panic(err)
	}
	return c, repo, picking
}
