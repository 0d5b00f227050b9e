package commands

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vsinha/stockvalued/pkg/infrastructure/repositories/csv"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Products   int     // Number of products in the catalog
	Orders     int     // Number of sale orders, one delivery each
	Backorders float64 // Share of deliveries shipped partially (0.3 = 30%)
	OutputDir  string  // Output directory for generated files
	Seed       int64   // Random seed for reproducible generation
	Help       bool    // Show help
	Verbose    bool    // Verbose output
}

// GenerateCommand handles scenario generation
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// generatedProduct is a catalog entry of the generated scenario
type generatedProduct struct {
	id          int
	code        string
	name        string
	packagingID int
	packQty     int
}

// scenarioRows accumulates the rows of each scenario file
type scenarioRows struct {
	products   []string
	packagings []string
	orders     []string
	saleLines  []string
	pickings   []string
	moves      []string
	moveLines  []string
}

var productWords = []string{
	"Desk", "Chair", "Cabinet", "Lamp", "Shelf", "Drawer", "Table", "Bin", "Screen", "Stool",
}

var productQualifiers = []string{
	"Office", "Conference", "Large", "Corner", "Acoustic", "Storage", "Standing", "Mobile",
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}

	if err := cmd.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Printf(
			"🔧 Generating scenario with %d products, %d orders, %.0f%% partial deliveries\n",
			cmd.config.Products,
			cmd.config.Orders,
			cmd.config.Backorders*100,
		)
		fmt.Printf("📁 Output directory: %s\n", cmd.config.OutputDir)
		fmt.Printf("🎲 Random seed: %d\n", cmd.config.Seed)
	}

	// Create output directory
	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := cmd.generateReferenceData(); err != nil {
		return fmt.Errorf("failed to generate reference data: %w", err)
	}

	rows := &scenarioRows{}
	products := cmd.generateProducts(rows)
	cmd.generateDeliveries(rows, products)

	files := []struct {
		name   string
		header string
		rows   []string
	}{
		{csv.ProductsFile, "id,default_code,name,uom_id", rows.products},
		{csv.PackagingsFile, "id,name,product_id,qty", rows.packagings},
		{csv.SaleOrdersFile, "id,name,partner_id,company_id,currency_id,currency_rate", rows.orders},
		{csv.SaleLinesFile, "id,order_id,price_unit,discount,tax_ids", rows.saleLines},
		{csv.PickingsFile, "id,name,partner_id,company_id,sale_order_id,backorder_of_id", rows.pickings},
		{csv.MovesFile, "id,picking_id,product_id,description,uom_id,product_uom_qty,quantity,state,packaging_id,sale_line_id,package_level", rows.moves},
		{csv.MoveLinesFile, "id,move_id,quantity,uom_id,lot_name,result_package", rows.moveLines},
	}
	for _, f := range files {
		if cmd.config.Verbose {
			fmt.Printf("📦 Generating %s...\n", f.name)
		}
		if err := cmd.writeFile(f.name, f.header, f.rows); err != nil {
			return fmt.Errorf("failed to generate %s: %w", f.name, err)
		}
	}

	if cmd.config.Verbose {
		fmt.Printf("✅ Scenario generated successfully in %s\n", cmd.config.OutputDir)
	}

	return nil
}

func (cmd *GenerateCommand) validate() error {
	if cmd.config.Products < 1 {
		return fmt.Errorf("--products must be at least 1")
	}
	if cmd.config.Orders < 1 {
		return fmt.Errorf("--orders must be at least 1")
	}
	if cmd.config.Backorders < 0 || cmd.config.Backorders > 1 {
		return fmt.Errorf("--backorders must be between 0 and 1")
	}
	if cmd.config.OutputDir == "" {
		return fmt.Errorf("--output is required")
	}
	return nil
}

// generateReferenceData writes the currencies, companies, partners, units and taxes
func (cmd *GenerateCommand) generateReferenceData() error {
	reference := []struct {
		name   string
		header string
		rows   []string
	}{
		{csv.CurrenciesFile, "id,name,symbol,rounding", []string{"1,EUR,€,0.01", "2,USD,$,0.01"}},
		{csv.CompaniesFile, "id,name,currency_id,tax_rounding", []string{
			"1,YourCompany,1,round_per_line",
			"2,GlobalCompany,1,round_globally",
		}},
		{csv.PartnersFile, "id,name,delivery_report_valued", []string{
			"1,Deco Addict,true",
			"2,Gemini Furniture,false",
			"3,Ready Mat,true",
			"4,Lumber Inc,false",
		}},
		{csv.UoMsFile, "id,name,category,ratio,rounding", []string{"1,Units,Unit,1,0.01", "2,Dozens,Unit,12,0.01"}},
		{csv.TaxesFile, "id,name,sequence,amount_type,amount,price_include,include_base_amount,tax_group", []string{
			"1,0% Exempt,1,percent,0,false,false,VAT 0%",
			"2,15%,1,percent,15,false,false,VAT 15%",
			"3,21%,1,percent,21,false,false,VAT 21%",
			"4,Eco fee,0,fixed,0.5,false,true,Eco",
		}},
	}

	for _, f := range reference {
		if err := cmd.writeFile(f.name, f.header, f.rows); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *GenerateCommand) generateProducts(rows *scenarioRows) []generatedProduct {
	products := make([]generatedProduct, 0, cmd.config.Products)
	for i := 1; i <= cmd.config.Products; i++ {
		product := generatedProduct{
			id: i,
			name: fmt.Sprintf("%s %s",
				productQualifiers[cmd.rand.Intn(len(productQualifiers))],
				productWords[cmd.rand.Intn(len(productWords))]),
		}
		// 70% of products carry an internal reference
		if cmd.rand.Float64() < 0.7 {
			product.code = fmt.Sprintf("FURN_%04d", i)
		}
		rows.products = append(rows.products, fmt.Sprintf("%d,%s,%s,1", product.id, product.code, product.name))

		// 30% are sold in boxes
		if cmd.rand.Float64() < 0.3 {
			product.packagingID = len(rows.packagings) + 1
			product.packQty = []int{6, 10, 12}[cmd.rand.Intn(3)]
			rows.packagings = append(rows.packagings, fmt.Sprintf("%d,Box of %d,%d,%d",
				product.packagingID, product.packQty, product.id, product.packQty))
		}

		products = append(products, product)
	}
	return products
}

// generateDeliveries creates one sale order and delivery per order. Partial
// deliveries get a backorder holding the remaining demand, either still
// waiting or cancelled.
func (cmd *GenerateCommand) generateDeliveries(rows *scenarioRows, products []generatedProduct) {
	pickingID, moveID, lineID, saleLineID, packageID := 0, 0, 0, 0, 0

	for order := 1; order <= cmd.config.Orders; order++ {
		partner := 1 + cmd.rand.Intn(4)
		company := 1 + cmd.rand.Intn(2)
		currency, rate := 1, "1"
		if cmd.rand.Float64() < 0.2 {
			currency, rate = 2, "1.1"
		}
		rows.orders = append(rows.orders, fmt.Sprintf("%d,S%05d,%d,%d,%d,%s", order, order, partner, company, currency, rate))

		pickingID++
		delivery := pickingID
		rows.pickings = append(rows.pickings, fmt.Sprintf("%d,WH/OUT/%05d,%d,%d,%d,", delivery, delivery, partner, company, order))

		partial := cmd.rand.Float64() < cmd.config.Backorders
		var remaining []string

		numLines := 1 + cmd.rand.Intn(4)
		for l := 0; l < numLines; l++ {
			product := products[cmd.rand.Intn(len(products))]

			saleLineID++
			discount := ""
			if cmd.rand.Float64() < 0.2 {
				discount = "10"
			}
			price := fmt.Sprintf("%d.%02d", 5+cmd.rand.Intn(495), cmd.rand.Intn(100))
			rows.saleLines = append(rows.saleLines, fmt.Sprintf("%d,%d,%s,%s,%s",
				saleLineID, order, price, discount, cmd.generateTaxIDs()))

			demand := 1 + cmd.rand.Intn(20)
			done := demand
			if partial {
				done = cmd.rand.Intn(demand)
			}
			state := "done"
			if done == 0 {
				state = "cancel"
			}

			packaging := ""
			if product.packagingID != 0 {
				packaging = fmt.Sprint(product.packagingID)
			}

			moveID++
			rows.moves = append(rows.moves, fmt.Sprintf("%d,%d,%d,,1,%d,%d,%s,%s,%d,",
				moveID, delivery, product.id, demand, done, state, packaging, saleLineID))

			for _, qty := range cmd.splitQuantity(done) {
				lineID++
				resultPackage := ""
				if product.packagingID != 0 && cmd.rand.Float64() < 0.3 {
					packageID++
					resultPackage = fmt.Sprintf("PACK%05d", packageID)
				}
				rows.moveLines = append(rows.moveLines, fmt.Sprintf("%d,%d,%d,1,,%s", lineID, moveID, qty, resultPackage))
			}

			if done < demand && done > 0 {
				backorderState := "assigned"
				if cmd.rand.Float64() < 0.5 {
					backorderState = "cancel"
				}
				remaining = append(remaining, fmt.Sprintf("%d,%d,%s,%s,%d",
					product.id, demand-done, backorderState, packaging, saleLineID))
			}
		}

		if len(remaining) == 0 {
			continue
		}

		pickingID++
		rows.pickings = append(rows.pickings, fmt.Sprintf("%d,WH/OUT/%05d,%d,%d,%d,%d",
			pickingID, pickingID, partner, company, order, delivery))
		for _, move := range remaining {
			parts := strings.Split(move, ",")
			moveID++
			rows.moves = append(rows.moves, fmt.Sprintf("%d,%d,%s,,1,%s,0,%s,%s,%s,",
				moveID, pickingID, parts[0], parts[1], parts[2], parts[3], parts[4]))
		}
	}
}

// generateTaxIDs picks the taxes of a sale line
func (cmd *GenerateCommand) generateTaxIDs() string {
	switch r := cmd.rand.Float64(); {
	case r < 0.1:
		return ""
	case r < 0.3:
		return "1"
	case r < 0.6:
		return "2"
	case r < 0.9:
		return "3"
	default:
		return "3|4"
	}
}

// splitQuantity spreads qty over one or two move lines
func (cmd *GenerateCommand) splitQuantity(qty int) []int {
	if qty == 0 {
		return nil
	}
	if qty == 1 || cmd.rand.Float64() < 0.6 {
		return []int{qty}
	}
	first := 1 + cmd.rand.Intn(qty-1)
	return []int{first, qty - first}
}

func (cmd *GenerateCommand) writeFile(name, header string, rows []string) error {
	filePath := filepath.Join(cmd.config.OutputDir, name)
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	// Write header
	fmt.Fprintln(file, header)
	for _, row := range rows {
		fmt.Fprintln(file, row)
	}

	return nil
}

func (cmd *GenerateCommand) printHelp() {
	fmt.Println(`Delivery Scenario Generator

USAGE:
    slipgen [OPTIONS]

OPTIONS:
    --products <N>      Number of products in the catalog (required)
    --orders <N>        Number of sale orders to deliver (required)
    --backorders <F>    Share of partial deliveries with a backorder, 0 to 1 (default: 0.3)
    --output <DIR>      Output directory for generated files (required)
    --seed <N>          Random seed for reproducible generation (optional)
    --verbose           Enable verbose output
    --help              Show this help message

EXAMPLES:
    # Generate small test scenario
    slipgen --products 20 --orders 10 --output ./test_scenario

    # Generate a scenario where most deliveries are partial
    slipgen --products 200 --orders 500 --backorders 0.8 --output ./large_scenario --verbose

    # Generate reproducible scenario
    slipgen --products 50 --orders 30 --output ./repro_scenario --seed 12345`)
}
