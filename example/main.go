package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockvalued/pkg/application/services/aggregation"
	"github.com/vsinha/stockvalued/pkg/application/services/recompute"
	"github.com/vsinha/stockvalued/pkg/application/services/slip"
	"github.com/vsinha/stockvalued/pkg/application/services/totals"
	"github.com/vsinha/stockvalued/pkg/application/services/valuation"
	"github.com/vsinha/stockvalued/pkg/domain/entities"
	"github.com/vsinha/stockvalued/pkg/domain/services"
	"github.com/vsinha/stockvalued/pkg/domain/services/tax"
	"github.com/vsinha/stockvalued/pkg/infrastructure/events"
	"github.com/vsinha/stockvalued/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/stockvalued/pkg/interfaces/cli/output"
)

func main() {
	ctx := context.Background()

	// Reference data
	eur := &entities.Currency{ID: 1, Name: "EUR", Symbol: "€", Rounding: decimal.RequireFromString("0.01")}
	company := &entities.Company{ID: 1, Name: "YourCompany", Currency: eur, TaxRounding: entities.RoundPerLine}
	customer := &entities.Partner{ID: 1, Name: "Deco Addict", DeliveryReportValued: true}
	units := &entities.UoM{ID: 1, Name: "Units", Category: "Unit", Ratio: decimal.NewFromInt(1), Rounding: decimal.RequireFromString("0.01")}
	desk := &entities.Product{ID: 1, DefaultCode: "FURN_0789", Name: "Office Desk", UoM: units}
	vat := &entities.Tax{ID: 1, Name: "15%", Sequence: 1, AmountType: entities.TaxPercent, Amount: decimal.NewFromInt(15), Group: "VAT 15%"}

	// A sale order of 10 desks, half shipped, the rest cancelled on the backorder
	order := &entities.SaleOrder{ID: 1, Name: "S00042", Partner: customer, Company: company, Currency: eur, CurrencyRate: decimal.NewFromInt(1)}
	saleLine := &entities.SaleOrderLine{ID: 1, Order: order, PriceUnit: decimal.NewFromInt(100), Taxes: entities.TaxSet{vat}}

	delivery := &entities.Picking{ID: 1, Name: "WH/OUT/00001", Partner: customer, Company: company, SaleOrder: order}
	shipped := &entities.Move{ID: 1, Product: desk, UoM: units, ProductUoMQty: decimal.NewFromInt(5), Quantity: decimal.NewFromInt(5), State: entities.MoveDone, SaleLine: saleLine}
	delivery.AddMove(shipped)
	shipped.AddLine(&entities.MoveLine{ID: 1, Quantity: decimal.NewFromInt(5)})

	backorder := &entities.Picking{ID: 2, Name: "WH/OUT/00002", Partner: customer, Company: company, SaleOrder: order}
	backorder.AddMove(&entities.Move{ID: 2, Product: desk, UoM: units, ProductUoMQty: decimal.NewFromInt(5), State: entities.MoveCancelled, SaleLine: saleLine})
	delivery.AddBackorder(backorder)

	repo := memory.NewPickingRepository(2)
	if err := repo.LoadPickings([]*entities.Picking{delivery, backorder}); err != nil {
		fmt.Printf("❌ Loading pickings failed: %v\n", err)
		return
	}

	// Services
	taxEngine := tax.NewEngine(nil)
	uomService := services.NewUoMService()
	valuator := valuation.NewService(taxEngine, nil)
	totalsService := totals.NewService(taxEngine, valuator, nil)
	slipService := slip.NewService(
		aggregation.NewEngine(uomService, uomService, repo, valuator, nil),
		totalsService,
		valuator,
		nil,
	)

	store := events.NewInMemoryEventStore(nil)
	recomputer, err := recompute.NewService(repo, store, totalsService, valuator, nil, nil)
	if err != nil {
		fmt.Printf("❌ Recompute setup failed: %v\n", err)
		return
	}

	fmt.Println("📦 Delivery slip before the price change:")
	if err := render(slipService, delivery); err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}

	// Renegotiated price: totals follow through the event store
	if err := recomputer.SetSaleLinePricing(ctx, saleLine.ID, decimal.NewFromInt(90), decimal.Zero, saleLine.Taxes); err != nil {
		fmt.Printf("❌ Price change failed: %v\n", err)
		return
	}
	fmt.Printf("\n🔄 New total after repricing: %s %s\n", delivery.AmountTotal.StringFixed(2), eur.Symbol)

	history, err := store.ReadEvents(events.PickingStream(delivery.Name), 0)
	if err == nil {
		fmt.Printf("   %d totals event(s) recorded for %s\n", len(history), delivery.Name)
	}
}

func render(slipService *slip.Service, picking *entities.Picking) error {
	deliverySlip, err := slipService.Build(picking)
	if err != nil {
		return err
	}
	return output.WriteText(os.Stdout, deliverySlip)
}
