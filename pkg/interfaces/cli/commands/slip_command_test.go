package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/stockvalued/pkg/domain/repositories"
	"github.com/vsinha/stockvalued/pkg/infrastructure/config"
	"github.com/vsinha/stockvalued/pkg/infrastructure/persistence"
)

var scenarioDir = filepath.Join("..", "..", "..", "..", "examples", "partial_backorder")

func appConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite"},
		Log:      config.LogConfig{Level: "info", Format: "console"},
		Report:   config.ReportConfig{Format: "text", OutputDir: "."},
	}
}

func readSlip(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func amount(t *testing.T, doc map[string]any, key string) decimal.Decimal {
	t.Helper()
	raw, ok := doc[key].(string)
	require.True(t, ok, "%s missing", key)
	return decimal.RequireFromString(raw)
}

func TestSlipCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	cmd := NewSlipCommand(Config{
		ScenarioDir: scenarioDir,
		Picking:     "WH/OUT/00001",
		Format:      "json",
		OutputDir:   dir,
		App:         appConfig(),
	})
	require.NoError(t, cmd.Execute(context.Background()))

	doc := readSlip(t, filepath.Join(dir, "WH_OUT_00001_slip.json"))
	assert.Equal(t, "Deco Addict", doc["partner"])
	assert.Equal(t, "S00042", doc["sale_order"])
	assert.Equal(t, true, doc["valued"])
	assert.Equal(t, []any{"WH/OUT/00002"}, doc["backorders"])

	assert.True(t, amount(t, doc, "amount_untaxed").Equal(decimal.RequireFromString("716")))
	assert.True(t, amount(t, doc, "amount_tax").Equal(decimal.RequireFromString("32.4")))
	assert.True(t, amount(t, doc, "amount_total").Equal(decimal.RequireFromString("748.4")))

	lines := doc["lines"].([]any)
	require.Len(t, lines, 2)
	desk := lines[0].(map[string]any)
	assert.Equal(t, "[FURN_0789] Office Desk", desk["product"])
	assert.Equal(t, "10", desk["qty_ordered"], "cancelled backorder demand is added back")
	assert.Equal(t, "5", desk["quantity"])

	chairs := lines[1].(map[string]any)
	assert.Equal(t, "6", chairs["qty_ordered"])
	assert.Equal(t, "Box of 6", chairs["packaging"])

	packages := doc["packages"].([]any)
	require.Len(t, packages, 1)
	assert.Equal(t, "PACK0001", packages[0].(map[string]any)["package"])
}

func TestSlipCommand_OverridesAndSnapshots(t *testing.T) {
	dir := t.TempDir()
	app := appConfig()
	app.Database.Enabled = true
	app.Database.DSN = filepath.Join(dir, "snapshots.db")

	cmd := NewSlipCommand(Config{
		ScenarioDir:   scenarioDir,
		Picking:       "WH/OUT/00001",
		Format:        "json",
		OutputDir:     dir,
		SetQuantities: "1=3",
		SetPrices:     "2=30",
		App:           app,
	})
	require.NoError(t, cmd.Execute(context.Background()))

	// 3 desks at 100, 12 chairs at 30 less 10% with 15% tax
	doc := readSlip(t, filepath.Join(dir, "WH_OUT_00001_slip.json"))
	assert.True(t, amount(t, doc, "amount_untaxed").Equal(decimal.RequireFromString("624")))
	assert.True(t, amount(t, doc, "amount_total").Equal(decimal.RequireFromString("672.6")))

	store, err := persistence.Open(app.Database, nil)
	require.NoError(t, err)
	defer store.Close()

	snapshot, err := store.LatestForPicking(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "WH/OUT/00001", snapshot.PickingName)
	assert.True(t, snapshot.AmountTotal.Equal(decimal.RequireFromString("672.6")))
	assert.Len(t, snapshot.Moves, 2)
}

func TestSlipCommand_XLSXAllPickings(t *testing.T) {
	dir := t.TempDir()
	cmd := NewSlipCommand(Config{
		ScenarioDir: scenarioDir,
		Format:      "xlsx",
		OutputDir:   dir,
		App:         appConfig(),
	})
	require.NoError(t, cmd.Execute(context.Background()))

	assert.FileExists(t, filepath.Join(dir, "WH_OUT_00001_slip.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "WH_OUT_00002_slip.xlsx"))
}

func TestSlipCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected string
	}{
		{
			name:     "missing_scenario",
			config:   Config{Format: "text"},
			expected: "must specify -scenario directory",
		},
		{
			name:     "unsupported_format",
			config:   Config{ScenarioDir: scenarioDir, Format: "pdf"},
			expected: `unsupported output format "pdf"`,
		},
		{
			name:     "unknown_scenario",
			config:   Config{ScenarioDir: filepath.Join("testdata", "missing"), Format: "text"},
			expected: "error loading scenario",
		},
		{
			name:     "malformed_override",
			config:   Config{ScenarioDir: scenarioDir, Format: "text", SetQuantities: "1:3"},
			expected: "invalid -set-qty",
		},
		{
			name:     "negative_quantity",
			config:   Config{ScenarioDir: scenarioDir, Format: "text", SetQuantities: "1=-2"},
			expected: "negative quantity",
		},
		{
			name:     "unknown_sale_line",
			config:   Config{ScenarioDir: scenarioDir, Format: "text", SetPrices: "99=10"},
			expected: "sale order line not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.App = appConfig()
			err := NewSlipCommand(tt.config).Execute(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestSlipCommand_UnknownPicking(t *testing.T) {
	cmd := NewSlipCommand(Config{ScenarioDir: scenarioDir, Picking: "WH/OUT/99999", Format: "text", App: appConfig()})
	err := cmd.Execute(context.Background())
	assert.ErrorIs(t, err, repositories.ErrPickingNotFound)
}

func TestSlipCommand_Help(t *testing.T) {
	assert.NoError(t, NewSlipCommand(Config{Help: true, App: appConfig()}).Execute(context.Background()))
}

func TestParseOverrides(t *testing.T) {
	overrides, err := parseOverrides(" 1=3, 7=2.5 ,")
	require.NoError(t, err)
	assert.Equal(t, []override{{id: 1, value: "3"}, {id: 7, value: "2.5"}}, overrides)

	overrides, err = parseOverrides("")
	require.NoError(t, err)
	assert.Empty(t, overrides)

	_, err = parseOverrides("x=1")
	assert.EqualError(t, err, `invalid id "x"`)
}
