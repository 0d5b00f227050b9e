package slip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockvalued/pkg/application/services/aggregation"
	"github.com/vsinha/stockvalued/pkg/application/services/totals"
	"github.com/vsinha/stockvalued/pkg/application/services/valuation"
	"github.com/vsinha/stockvalued/pkg/domain/entities"
	"github.com/vsinha/stockvalued/pkg/domain/services"
	"github.com/vsinha/stockvalued/pkg/domain/services/tax"
	testhelpers "github.com/vsinha/stockvalued/pkg/infrastructure/testing"
)

var dec = testhelpers.Dec

func newTestService(source aggregation.BackorderSource) *Service {
	engine := tax.NewEngine(nil)
	uom := services.NewUoMService()
	valuator := valuation.NewService(engine, nil)
	return NewService(
		aggregation.NewEngine(uom, uom, source, valuator, nil),
		totals.NewService(engine, valuator, nil),
		valuator,
		nil,
	)
}

func TestBuild_PartialBackorder(t *testing.T) {
	scenario := testhelpers.BuildPartialBackorderScenario()

	slip, err := newTestService(scenario.Repo).Build(scenario.Delivery)
	require.NoError(t, err)

	assert.Equal(t, "WH/OUT/00001", slip.PickingName)
	assert.Equal(t, "Deco Addict", slip.PartnerName)
	assert.Equal(t, "S00042", slip.SaleOrderName)
	assert.True(t, slip.Valued)
	assert.Equal(t, "EUR", slip.Currency.Name)
	assert.Equal(t, []string{"WH/OUT/00002"}, slip.BackorderNames)

	require.Len(t, slip.Lines, 1)
	assert.True(t, slip.Lines[0].QtyOrdered.Equal(dec("10")))
	assert.True(t, slip.Lines[0].QuantityOrZero().Equal(dec("5")))

	assert.True(t, slip.Totals.AmountUntaxed.Equal(dec("500")))
	assert.True(t, scenario.Delivery.AmountTotal.Equal(dec("500")), "totals applied on the picking")
	require.Len(t, slip.Valuations, 1)
	assert.Empty(t, slip.Packages)
}

func TestBuild_PackagesAreStrict(t *testing.T) {
	c := testhelpers.NewCatalog()
	c.Customer.DeliveryReportValued = false
	order := c.SaleOrder("S00060")
	saleLine := c.SaleLine(order, "20", "0", c.VAT15)
	picking := c.Picking("WH/OUT/00060", order)

	move := c.Move(picking, c.Chair, "12", "12", entities.MoveAssigned, saleLine)
	c.Line(move, "6").ResultPackage = "PACK0001"
	c.Line(move, "4").ResultPackage = "PACK0002"
	c.Line(move, "2").ResultPackage = "PACK0001"

	desks := c.Move(picking, c.Desk, "1", "1", entities.MoveAssigned, nil)
	c.Line(desks, "1")

	backorder := c.Picking("WH/OUT/00061", order)
	c.Move(backorder, c.Chair, "3", "0", entities.MoveCancelled, saleLine)
	picking.AddBackorder(backorder)

	slip, err := newTestService(staticSource{picking.ID: {backorder}}).Build(picking)
	require.NoError(t, err)

	assert.False(t, slip.Valued)

	// cancelled chairs recovered on the loose section only
	require.Len(t, slip.Lines, 2)
	assert.Equal(t, c.Desk, slip.Lines[0].Product)
	assert.Equal(t, c.Chair, slip.Lines[1].Product)
	assert.False(t, slip.Lines[1].Quantity.Valid)
	assert.True(t, slip.Lines[1].QtyOrdered.Equal(dec("3")))

	require.Len(t, slip.Packages, 2)
	assert.Equal(t, "PACK0001", slip.Packages[0].Package)
	require.Len(t, slip.Packages[0].Lines, 1)
	assert.True(t, slip.Packages[0].Lines[0].QuantityOrZero().Equal(dec("8")))
	assert.True(t, slip.Packages[0].Lines[0].QtyOrdered.Equal(dec("8")))
	assert.Equal(t, "PACK0002", slip.Packages[1].Package)
	assert.True(t, slip.Packages[1].Lines[0].QuantityOrZero().Equal(dec("4")))
}

type staticSource map[int64][]*entities.Picking

func (s staticSource) Backorders(picking *entities.Picking) ([]*entities.Picking, error) {
	return s[picking.ID], nil
}
