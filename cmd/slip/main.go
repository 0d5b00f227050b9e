package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/vsinha/stockvalued/pkg/infrastructure/config"
	"github.com/vsinha/stockvalued/pkg/infrastructure/logging"
	"github.com/vsinha/stockvalued/pkg/interfaces/cli/commands"
)

func main() {
	// Load .env if present (ignore error)
	_ = godotenv.Load()

	appConfig := config.Load()

	// Command line flags
	var (
		scenarioDir = flag.String(
			"scenario",
			"",
			"Path to scenario directory containing CSV files",
		)
		picking     = flag.String("picking", "", "Only render the picking with this reference")
		outputDir   = flag.String("output", "", "Output directory for slips (optional, required for xlsx)")
		format      = flag.String("format", appConfig.Report.Format, "Output format: text, json, csv, xlsx")
		setQty      = flag.String("set-qty", "", "Moved quantity overrides: moveID=qty[,...]")
		setPrice    = flag.String("set-price", "", "Sale line overrides: lineID=price[:discount][,...]")
		verbose     = flag.Bool("verbose", false, "Enable verbose output")
		interactive = flag.Bool("interactive", false, "Start an interactive recomputation session")
		help        = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	if err := appConfig.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(appConfig.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	if *interactive {
		session := commands.NewIncrementalCommand(commands.IncrementalConfig{
			ScenarioDir: *scenarioDir,
			Verbose:     *verbose,
			Help:        *help,
			App:         appConfig,
			Logger:      logger,
		})
		if err := session.Execute(ctx); err != nil {
			_ = logger.Sync()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Create command configuration
	cfg := commands.Config{
		ScenarioDir:   *scenarioDir,
		Picking:       *picking,
		Format:        *format,
		OutputDir:     *outputDir,
		SetQuantities: *setQty,
		SetPrices:     *setPrice,
		Verbose:       *verbose,
		Help:          *help,
		App:           appConfig,
		Logger:        logger,
	}

	// Create and execute command
	cmd := commands.NewSlipCommand(cfg)

	if err := cmd.Execute(ctx); err != nil {
		_ = logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
