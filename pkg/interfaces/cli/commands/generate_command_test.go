package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockvalued/pkg/infrastructure/repositories/csv"
)

func TestGenerateCommand_LoadableScenario(t *testing.T) {
	dir := t.TempDir()
	gen := NewGenerateCommand(GenerateConfig{
		Products:   15,
		Orders:     12,
		Backorders: 0.5,
		OutputDir:  dir,
		Seed:       42,
	})
	require.NoError(t, gen.Execute(context.Background()))

	scenario, err := csv.NewLoader().LoadScenario(dir)
	require.NoError(t, err)

	assert.Len(t, scenario.Products, 15)
	assert.Len(t, scenario.SaleOrders, 12)
	assert.GreaterOrEqual(t, len(scenario.Pickings), 12)

	deliveries := 0
	for _, picking := range scenario.Pickings {
		if picking.BackorderOf == nil {
			deliveries++
			continue
		}
		assert.Equal(t, picking.SaleOrder, picking.BackorderOf.SaleOrder)
		for _, move := range picking.Moves {
			assert.Empty(t, move.Lines, "backorder moves are not processed yet")
			assert.True(t, move.Quantity.IsZero())
		}
	}
	assert.Equal(t, 12, deliveries)
}

func TestGenerateCommand_Reproducible(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	for _, dir := range []string{first, second} {
		gen := NewGenerateCommand(GenerateConfig{Products: 10, Orders: 8, Backorders: 0.3, OutputDir: dir, Seed: 7})
		require.NoError(t, gen.Execute(context.Background()))
	}

	for _, name := range []string{csv.ProductsFile, csv.MovesFile, csv.MoveLinesFile, csv.SaleLinesFile} {
		a, err := os.ReadFile(filepath.Join(first, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(second, name))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), name)
	}
}

func TestGenerateCommand_SlipsRender(t *testing.T) {
	scenario := t.TempDir()
	gen := NewGenerateCommand(GenerateConfig{Products: 20, Orders: 10, Backorders: 0.6, OutputDir: scenario, Seed: 1234})
	require.NoError(t, gen.Execute(context.Background()))

	out := t.TempDir()
	cmd := NewSlipCommand(Config{ScenarioDir: scenario, Format: "csv", OutputDir: out, App: appConfig()})
	require.NoError(t, cmd.Execute(context.Background()))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 10)
}

func TestGenerateCommand_Validation(t *testing.T) {
	tests := []struct {
		name     string
		config   GenerateConfig
		expected string
	}{
		{"no_products", GenerateConfig{Orders: 1, OutputDir: "x"}, "--products must be at least 1"},
		{"no_orders", GenerateConfig{Products: 1, OutputDir: "x"}, "--orders must be at least 1"},
		{"backorder_share", GenerateConfig{Products: 1, Orders: 1, Backorders: 2, OutputDir: "x"}, "--backorders must be between 0 and 1"},
		{"no_output", GenerateConfig{Products: 1, Orders: 1}, "--output is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewGenerateCommand(tt.config).Execute(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}
