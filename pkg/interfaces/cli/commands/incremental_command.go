package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/stockvalued/pkg/infrastructure/config"
	"github.com/vsinha/stockvalued/pkg/interfaces/cli/output"
)

// IncrementalConfig holds configuration for the interactive recomputation session
type IncrementalConfig struct {
	ScenarioDir string
	Verbose     bool
	Help        bool

	App    *config.Config
	Logger *zap.Logger
	// Input and Output default to stdin and stdout
	Input  io.Reader
	Output io.Writer
}

// IncrementalCommand handles the interactive session: quantity and price
// changes are applied through events and the totals follow
type IncrementalCommand struct {
	config  IncrementalConfig
	logger  *zap.Logger
	svc     *deliveryServices
	scanner *bufio.Scanner
	out     io.Writer
}

// NewIncrementalCommand creates a new incremental command with the given configuration
func NewIncrementalCommand(cfg IncrementalConfig) *IncrementalCommand {
	if cfg.App == nil {
		cfg.App = config.Load()
	}
	if cfg.Input == nil {
		cfg.Input = os.Stdin
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncrementalCommand{
		config:  cfg,
		logger:  logger,
		scanner: bufio.NewScanner(cfg.Input),
		out:     cfg.Output,
	}
}

// Execute runs the interactive session until quit or end of input
func (c *IncrementalCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.printHelp()
		return nil
	}

	if c.config.ScenarioDir == "" {
		return fmt.Errorf("validation error: must specify -scenario directory")
	}

	svc, err := loadServices(c.config.ScenarioDir, c.config.App, c.logger)
	if err != nil {
		return err
	}
	defer svc.Close()
	c.svc = svc

	if c.config.Verbose {
		fmt.Fprintf(c.out, "📁 Scenario: %s\n", c.config.ScenarioDir)
	}

	return c.runInteractiveSession(ctx)
}

func (c *IncrementalCommand) runInteractiveSession(ctx context.Context) error {
	fmt.Fprintln(c.out, "=== Delivery Valuation Session ===")
	fmt.Fprintln(c.out, "Type 'help' for available commands")
	fmt.Fprintln(c.out)

	for {
		fmt.Fprint(c.out, "slip> ")
		if !c.scanner.Scan() {
			break
		}

		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}

		quit, err := c.processCommand(ctx, line)
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
		if quit {
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		}
		fmt.Fprintln(c.out)
	}

	return c.scanner.Err()
}

func (c *IncrementalCommand) processCommand(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}

	command := parts[0]
	args := parts[1:]

	switch command {
	case "help", "h":
		c.printInteractiveHelp()
	case "set-qty", "qty":
		return false, c.handleSetQuantity(ctx, args)
	case "set-price", "price":
		return false, c.handleSetPrice(ctx, args)
	case "totals":
		return false, c.handleTotals(args)
	case "slip":
		return false, c.handleSlip(args)
	case "pickings", "list":
		return false, c.handleListPickings()
	case "events":
		return false, c.handleShowEvents(args)
	case "status":
		return false, c.handleStatus()
	case "quit", "q", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command: %s (type 'help' for available commands)", command)
	}
	return false, nil
}

func (c *IncrementalCommand) handleSetQuantity(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set-qty <move-id> <quantity>")
	}

	moveID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid move id: %s", args[0])
	}
	qty, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity: %s", args[1])
	}

	if err := c.svc.recompute.SetMoveQuantity(ctx, moveID, qty); err != nil {
		return err
	}

	move, err := c.svc.pickings.GetMove(moveID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Move %d set to %s\n", moveID, qty)
	if move.Picking != nil {
		c.printTotals(move.Picking.Name, move.Picking.AmountUntaxed, move.Picking.AmountTax, move.Picking.AmountTotal)
	}
	return nil
}

func (c *IncrementalCommand) handleSetPrice(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: set-price <sale-line-id> <price> [discount]")
	}

	lineID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid sale line id: %s", args[0])
	}
	price, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid price: %s", args[1])
	}

	saleLine, err := c.svc.pickings.GetSaleLine(lineID)
	if err != nil {
		return err
	}
	discount := saleLine.Discount
	if len(args) == 3 {
		if discount, err = decimal.NewFromString(args[2]); err != nil {
			return fmt.Errorf("invalid discount: %s", args[2])
		}
	}

	if err := c.svc.recompute.SetSaleLinePricing(ctx, lineID, price, discount, saleLine.Taxes); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Sale line %d priced %s (discount %s%%)\n", lineID, price, discount)
	pickings, err := c.svc.pickings.FindPickingsBySaleLine(lineID)
	if err != nil {
		return err
	}
	for _, picking := range pickings {
		c.printTotals(picking.Name, picking.AmountUntaxed, picking.AmountTax, picking.AmountTotal)
	}
	return nil
}

func (c *IncrementalCommand) handleTotals(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: totals <picking>")
	}

	picking, err := c.svc.pickings.GetPickingByName(args[0])
	if err != nil {
		return err
	}
	totals, err := c.svc.totals.Apply(picking)
	if err != nil {
		return err
	}

	c.printTotals(picking.Name, totals.AmountUntaxed, totals.AmountTax, totals.AmountTotal)
	if totals.TaxTotals != nil {
		for _, subtotal := range totals.TaxTotals.Subtotals {
			for _, group := range subtotal.TaxGroups {
				fmt.Fprintf(c.out, "  %-20s base %s tax %s\n", group.GroupName, group.BaseAmountCurrency, group.TaxAmountCurrency)
			}
		}
	}
	return nil
}

func (c *IncrementalCommand) handleSlip(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: slip <picking>")
	}

	picking, err := c.svc.pickings.GetPickingByName(args[0])
	if err != nil {
		return err
	}
	deliverySlip, err := c.svc.slips.Build(picking)
	if err != nil {
		return err
	}
	return output.WriteText(c.out, deliverySlip)
}

func (c *IncrementalCommand) handleListPickings() error {
	pickings, err := c.svc.pickings.GetAllPickings()
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%-15s %-8s %-20s %s\n", "Picking", "Moves", "Partner", "Backorder of")
	for _, picking := range pickings {
		partner, origin := "", ""
		if picking.Partner != nil {
			partner = picking.Partner.Name
		}
		if picking.BackorderOf != nil {
			origin = picking.BackorderOf.Name
		}
		fmt.Fprintf(c.out, "%-15s %-8d %-20s %s\n", picking.Name, len(picking.Moves), partner, origin)
	}
	return nil
}

func (c *IncrementalCommand) handleStatus() error {
	// Get all events to understand current state
	allEvents, err := c.svc.events.ReadAllEvents(0)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}

	fmt.Fprintf(c.out, "=== Session Status ===\n")
	fmt.Fprintf(c.out, "Total events processed: %d\n", len(allEvents))

	counts := make(map[string]int)
	var order []string
	for _, event := range allEvents {
		if counts[event.Type()] == 0 {
			order = append(order, event.Type())
		}
		counts[event.Type()]++
	}

	if len(order) > 0 {
		fmt.Fprintf(c.out, "\nEvent counts by type:\n")
		for _, eventType := range order {
			fmt.Fprintf(c.out, "  %s: %d\n", eventType, counts[eventType])
		}
	}
	if c.svc.snapshots != nil {
		fmt.Fprintf(c.out, "Snapshots: %s\n", c.config.App.Database.Driver)
	}
	return nil
}

func (c *IncrementalCommand) handleShowEvents(args []string) error {
	limit := 10 // Default limit
	if len(args) > 0 {
		if l, err := strconv.Atoi(args[0]); err == nil {
			limit = l
		}
	}

	allEvents, err := c.svc.events.ReadAllEvents(0)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}

	fmt.Fprintf(c.out, "=== Recent Events (last %d) ===\n", limit)
	start := max(len(allEvents)-limit, 0)
	for _, event := range allEvents[start:] {
		fmt.Fprintf(c.out, "[%s] %s -> %s\n",
			event.Timestamp().Format("15:04:05"),
			event.Type(),
			event.StreamID())
	}
	return nil
}

func (c *IncrementalCommand) printTotals(picking string, untaxed, tax, total decimal.Decimal) {
	fmt.Fprintf(c.out, "%s: untaxed %s, tax %s, total %s\n", picking, untaxed, tax, total)
}

func (c *IncrementalCommand) printInteractiveHelp() {
	fmt.Fprint(c.out, `Available commands:
  set-qty <move-id> <quantity>                 Change the moved quantity of a move
  set-price <sale-line-id> <price> [discount]  Change the pricing of a sale order line
  totals <picking>                             Show the totals and tax breakdown of a picking
  slip <picking>                               Print the delivery slip of a picking
  pickings                                     List the pickings of the scenario
  events [n]                                   Show the last n events (default 10)
  status                                       Show event counts
  help                                         Show this help
  quit                                         Leave the session
`)
}

func (c *IncrementalCommand) printHelp() {
	fmt.Fprint(c.out, `Delivery Valuation Session - interactive recomputation of delivery totals

USAGE:
    slip -interactive -scenario <directory>

Quantity and price changes are recorded as events; every affected picking
is revalued and, when STOCKVALUED_DB_ENABLED is set, snapshotted.
`)
	c.printInteractiveHelp()
}
