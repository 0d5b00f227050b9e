package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vsinha/stockvalued/pkg/interfaces/cli/commands"
)

func main() {
	var (
		products   = flag.Int("products", 0, "Number of products in the catalog")
		orders     = flag.Int("orders", 0, "Number of sale orders to deliver")
		backorders = flag.Float64("backorders", 0.3, "Share of partial deliveries with a backorder (0 to 1)")
		outputDir  = flag.String("output", "", "Output directory for generated files")
		seed       = flag.Int64("seed", 0, "Random seed for reproducible generation")
		verbose    = flag.Bool("verbose", false, "Enable verbose output")
		help       = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	cmd := commands.NewGenerateCommand(commands.GenerateConfig{
		Products:   *products,
		Orders:     *orders,
		Backorders: *backorders,
		OutputDir:  *outputDir,
		Seed:       *seed,
		Help:       *help,
		Verbose:    *verbose,
	})

	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
