package commands

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/stockvalued/pkg/domain/entities"
	"github.com/vsinha/stockvalued/pkg/infrastructure/config"
	"github.com/vsinha/stockvalued/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/stockvalued/pkg/interfaces/cli/output"
)

// Config holds configuration for the slip command
type Config struct {
	ScenarioDir string
	Picking     string
	Format      string
	OutputDir   string
	// SetQuantities lists moveID=qty overrides applied before rendering
	SetQuantities string
	// SetPrices lists saleLineID=price[:discount] overrides applied before rendering
	SetPrices string
	Verbose   bool
	Help      bool

	App    *config.Config
	Logger *zap.Logger
}

// SlipCommand renders the delivery slips of a scenario
type SlipCommand struct {
	config Config
	logger *zap.Logger
}

// NewSlipCommand creates a new slip command with the given configuration
func NewSlipCommand(cfg Config) *SlipCommand {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.App == nil {
		cfg.App = config.Load()
	}
	return &SlipCommand{config: cfg, logger: logger}
}

// Execute runs the slip command
func (c *SlipCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if c.config.Verbose {
		c.printHeader()
	}

	svc, err := loadServices(c.config.ScenarioDir, c.config.App, c.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := c.applyOverrides(ctx, svc.recompute, svc.pickings); err != nil {
		return err
	}

	pickings, err := c.selectPickings(svc.pickings)
	if err != nil {
		return err
	}

	startTime := time.Now()
	for _, picking := range pickings {
		if svc.snapshots != nil {
			if err := svc.recompute.RecomputePicking(ctx, picking); err != nil {
				return fmt.Errorf("error recomputing %s: %w", picking.Name, err)
			}
		}

		deliverySlip, err := svc.slips.Build(picking)
		if err != nil {
			return fmt.Errorf("error building slip for %s: %w", picking.Name, err)
		}

		err = output.Generate(deliverySlip, output.Config{
			Format:    c.config.Format,
			OutputDir: c.config.OutputDir,
			Verbose:   c.config.Verbose,
		})
		if err != nil {
			return fmt.Errorf("error generating output: %w", err)
		}
	}

	if c.config.Verbose {
		fmt.Printf("🏁 %d delivery slip(s) generated in %v\n", len(pickings), time.Since(startTime))
	}

	return nil
}

// validateInputs validates the command configuration
func (c *SlipCommand) validateInputs() error {
	if c.config.ScenarioDir == "" {
		return fmt.Errorf("must specify -scenario directory")
	}
	if c.config.Format == "" {
		c.config.Format = c.config.App.Report.Format
	}
	if !slices.Contains(config.ReportFormats, c.config.Format) {
		return fmt.Errorf("unsupported output format %q (expected one of %s)",
			c.config.Format, strings.Join(config.ReportFormats, ", "))
	}
	if c.config.Format == "xlsx" && c.config.OutputDir == "" {
		c.config.OutputDir = c.config.App.Report.OutputDir
	}
	return nil
}

type pricingUpdater interface {
	SetMoveQuantity(ctx context.Context, moveID int64, qty decimal.Decimal) error
	SetSaleLinePricing(ctx context.Context, saleLineID int64, priceUnit, discount decimal.Decimal, taxes entities.TaxSet) error
}

// applyOverrides applies the quantity and price overrides through the
// recomputation service so the affected pickings are refreshed
func (c *SlipCommand) applyOverrides(ctx context.Context, r pricingUpdater, pickingRepo *memory.PickingRepository) error {
	quantities, err := parseOverrides(c.config.SetQuantities)
	if err != nil {
		return fmt.Errorf("invalid -set-qty: %w", err)
	}
	for _, o := range quantities {
		qty, err := decimal.NewFromString(o.value)
		if err != nil {
			return fmt.Errorf("invalid -set-qty quantity %q for move %d", o.value, o.id)
		}
		if err := r.SetMoveQuantity(ctx, o.id, qty); err != nil {
			return fmt.Errorf("failed to set quantity of move %d: %w", o.id, err)
		}
	}

	prices, err := parseOverrides(c.config.SetPrices)
	if err != nil {
		return fmt.Errorf("invalid -set-price: %w", err)
	}
	for _, o := range prices {
		line, err := pickingRepo.GetSaleLine(o.id)
		if err != nil {
			return err
		}
		rawPrice, rawDiscount, hasDiscount := strings.Cut(o.value, ":")
		price, err := decimal.NewFromString(rawPrice)
		if err != nil {
			return fmt.Errorf("invalid -set-price price %q for sale line %d", rawPrice, o.id)
		}
		discount := line.Discount
		if hasDiscount {
			if discount, err = decimal.NewFromString(rawDiscount); err != nil {
				return fmt.Errorf("invalid -set-price discount %q for sale line %d", rawDiscount, o.id)
			}
		}
		if err := r.SetSaleLinePricing(ctx, o.id, price, discount, line.Taxes); err != nil {
			return fmt.Errorf("failed to set pricing of sale line %d: %w", o.id, err)
		}
	}

	return nil
}

type override struct {
	id    int64
	value string
}

// parseOverrides parses a comma separated list of id=value pairs
func parseOverrides(raw string) ([]override, error) {
	var overrides []override
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		rawID, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected id=value, got %q", pair)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", rawID)
		}
		overrides = append(overrides, override{id: id, value: strings.TrimSpace(value)})
	}
	return overrides, nil
}

// selectPickings returns the requested picking, or every picking
func (c *SlipCommand) selectPickings(pickingRepo *memory.PickingRepository) ([]*entities.Picking, error) {
	if c.config.Picking == "" {
		return pickingRepo.GetAllPickings()
	}
	picking, err := pickingRepo.GetPickingByName(c.config.Picking)
	if err != nil {
		return nil, err
	}
	return []*entities.Picking{picking}, nil
}

// printHeader prints the command header information
func (c *SlipCommand) printHeader() {
	fmt.Printf("🚀 Valued Delivery Slip CLI\n")
	fmt.Printf("Scenario: %s\n", c.config.ScenarioDir)
	if c.config.Picking != "" {
		fmt.Printf("Picking: %s\n", c.config.Picking)
	}
	fmt.Printf("Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Printf("Output directory: %s\n", c.config.OutputDir)
	}
	if c.config.App.Database.Enabled {
		fmt.Printf("Snapshots: %s\n", c.config.App.Database.Driver)
	}
	fmt.Println()
}

// showHelp displays the help message
func (c *SlipCommand) showHelp() {
	fmt.Printf(`Valued Delivery Slip CLI - prices, taxes and aggregated lines of deliveries

USAGE:
    slip -scenario <directory> [-picking <name>]

OPTIONS:
    -scenario <dir>        Path to scenario directory containing CSV files
    -picking <name>        Only render this picking (default: every picking)
    -output <dir>          Output directory for slips (optional, required for xlsx)
    -format <fmt>          Output format: text, json, csv, xlsx (default: text)
    -set-qty <list>        Moved quantity overrides: moveID=qty[,moveID=qty...]
    -set-price <list>      Sale line overrides: lineID=price[:discount][,...]
    -verbose               Enable verbose output
    -help                  Show this help message

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── currencies.csv     id,name,symbol,rounding
    ├── companies.csv      id,name,currency_id,tax_rounding
    ├── partners.csv       id,name,delivery_report_valued              (optional)
    ├── uoms.csv           id,name,category,ratio,rounding
    ├── products.csv       id,default_code,name,uom_id
    ├── packagings.csv     id,name,product_id,qty                       (optional)
    ├── taxes.csv          id,name,sequence,amount_type,amount,
    │                      price_include,include_base_amount,tax_group  (optional)
    ├── sale_orders.csv    id,name,partner_id,company_id,currency_id,
    │                      currency_rate                                (optional)
    ├── sale_lines.csv     id,order_id,price_unit,discount,tax_ids      (optional)
    ├── pickings.csv       id,name,partner_id,company_id,sale_order_id,
    │                      backorder_of_id
    ├── moves.csv          id,picking_id,product_id,description,uom_id,
    │                      product_uom_qty,quantity,state,packaging_id,
    │                      sale_line_id,package_level
    └── move_lines.csv     id,move_id,quantity,uom_id,lot_name,
                           result_package                               (optional)

ENVIRONMENT:
    STOCKVALUED_DB_ENABLED     Store totals snapshots (default: false)
    STOCKVALUED_DB_DRIVER      sqlite or postgres (default: sqlite)
    STOCKVALUED_DB_DSN         Database DSN (default: stockvalued.db)
    STOCKVALUED_LOG_LEVEL      debug, info, warn, error (default: info)
    STOCKVALUED_LOG_FORMAT     json or console (default: console)
    STOCKVALUED_REPORT_FORMAT  Default output format (default: text)
    STOCKVALUED_OUTPUT_DIR     Default xlsx output directory (default: .)

EXAMPLES:
    # Render every delivery of a scenario
    slip -scenario examples/partial_backorder

    # Export one delivery to a spreadsheet
    slip -scenario examples/partial_backorder -picking WH/OUT/00001 -format xlsx -output slips/

    # Deliver 3 units on move 1 and render the result as JSON
    slip -scenario examples/partial_backorder -set-qty 1=3 -format json
`)
}
