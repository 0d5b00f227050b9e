package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/stockvalued/pkg/application/dto"
	"github.com/vsinha/stockvalued/pkg/domain/entities"
	testhelpers "github.com/vsinha/stockvalued/pkg/infrastructure/testing"
)

var dec = testhelpers.Dec

func sampleSlip(valued bool) *dto.DeliverySlip {
	c := testhelpers.NewCatalog()

	desk := &dto.AggregatedLine{
		Product:       c.Desk,
		Name:          c.Desk.DisplayName(),
		Quantity:      decimal.NewNullDecimal(dec("5")),
		QtyOrdered:    dec("10"),
		ProductUoM:    c.Units,
		PriceUnit:     dec("100"),
		Taxes:         entities.TaxSet{c.VAT0},
		PriceSubtotal: dec("500"),
	}
	cancelled := &dto.AggregatedLine{
		Product:     c.Desk,
		Name:        c.Desk.DisplayName(),
		Description: "Standing",
		QtyOrdered:  dec("2"),
		ProductUoM:  c.Units,
		PriceUnit:   dec("100"),
	}
	chairs := &dto.AggregatedLine{
		Product:           c.Chair,
		Name:              c.Chair.DisplayName(),
		Quantity:          decimal.NewNullDecimal(dec("6")),
		QtyOrdered:        dec("6"),
		ProductUoM:        c.Units,
		Packaging:         c.ChairBox,
		PackagingQty:      dec("1"),
		PackagingQuantity: dec("1"),
		PriceUnit:         dec("20"),
		Discount:          dec("10"),
		Taxes:             entities.TaxSet{c.VAT15},
		PriceSubtotal:     dec("108"),
	}

	return &dto.DeliverySlip{
		PickingID:     1,
		PickingName:   "WH/OUT/00001",
		PartnerName:   "Deco Addict",
		SaleOrderName: "S00042",
		Valued:        valued,
		Currency:      c.EUR,
		Lines:         []*dto.AggregatedLine{desk, cancelled},
		Packages:      []dto.PackageSection{{Package: "PACK0001", Lines: []*dto.AggregatedLine{chairs}}},
		Totals: &dto.PickingTotals{
			PickingID:     1,
			Currency:      c.EUR,
			AmountUntaxed: dec("608"),
			AmountTax:     dec("16.2"),
			AmountTotal:   dec("624.2"),
			TaxTotals: &entities.TaxTotals{
				CurrencyName: "EUR",
				Subtotals: []entities.TaxSubtotal{{
					Name: "Untaxed Amount",
					TaxGroups: []entities.TaxGroupTotal{
						{GroupName: "VAT 0%", BaseAmountCurrency: dec("500")},
						{GroupName: "VAT 15%", BaseAmountCurrency: dec("108"), TaxAmountCurrency: dec("16.2")},
					},
				}},
			},
		},
		BackorderNames: []string{"WH/OUT/00002"},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleSlip(true)))
	out := buf.String()

	assert.Contains(t, out, "Delivery Slip WH/OUT/00001")
	assert.Contains(t, out, "Customer: Deco Addict")
	assert.Contains(t, out, "Order: S00042")
	assert.Contains(t, out, "Unit Price")
	assert.Contains(t, out, "[FURN_0789] Office Desk")
	assert.Contains(t, out, "Package PACK0001")
	assert.Contains(t, out, "1 Box of 6")
	assert.Contains(t, out, "10%")
	assert.Contains(t, out, "16.20 €")
	assert.Contains(t, out, "624.20 €")
	assert.Contains(t, out, "Remaining quantities will be delivered in: WH/OUT/00002")
}

func TestWriteText_NotValued(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleSlip(false)))
	out := buf.String()

	assert.Contains(t, out, "[FURN_0789] Office Desk")
	assert.NotContains(t, out, "Unit Price")
	assert.NotContains(t, out, "Total")
	assert.NotContains(t, out, "€")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSlip(true)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"Package", "Product", "Description", "Ordered", "Delivered", "UoM", "Packaging", "Unit Price", "Discount", "Taxes", "Amount"}, records[0])
	assert.Equal(t, []string{"", "[FURN_0789] Office Desk", "", "10", "5", "Units", "", "100.00", "", "0%", "500.00"}, records[1])
	assert.Equal(t, "", records[2][4], "cancelled line has no delivered quantity")
	assert.Equal(t, "Standing", records[2][2])
	assert.Equal(t, []string{"PACK0001", "Conference Chair", "", "6", "6", "Units", "1 Box of 6", "20.00", "10%", "15%", "108.00"}, records[3])
}

func TestWriteCSV_NotValued(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleSlip(false)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records[0], 7)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleSlip(true)))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "WH/OUT/00001", doc["picking"])
	assert.Equal(t, "EUR", doc["currency"])
	assert.Equal(t, "624.2", doc["amount_total"])
	assert.Equal(t, []any{"WH/OUT/00002"}, doc["backorders"])

	lines := doc["lines"].([]any)
	require.Len(t, lines, 2)
	desk := lines[0].(map[string]any)
	assert.Equal(t, "10", desk["qty_ordered"])
	assert.Equal(t, "5", desk["quantity"])
	assert.Equal(t, "100", desk["price_unit"])
	assert.Nil(t, lines[1].(map[string]any)["quantity"])

	packages := doc["packages"].([]any)
	require.Len(t, packages, 1)
	assert.Equal(t, "PACK0001", packages[0].(map[string]any)["package"])
}

func TestWriteJSON_NotValued(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleSlip(false)))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.NotContains(t, doc, "amount_total")
	assert.NotContains(t, doc, "tax_totals")
	desk := doc["lines"].([]any)[0].(map[string]any)
	assert.NotContains(t, desk, "price_unit")
	assert.NotContains(t, desk, "price_subtotal")
}

func TestGenerate_XLSX(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(sampleSlip(true), Config{Format: "xlsx", OutputDir: dir}))

	f, err := excelize.OpenFile(filepath.Join(dir, "WH_OUT_00001_slip.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(slipSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Delivery Slip WH/OUT/00001", title)

	product, err := f.GetCellValue(slipSheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "[FURN_0789] Office Desk", product)

	pack, err := f.GetCellValue(slipSheet, "A8")
	require.NoError(t, err)
	assert.Equal(t, "PACK0001", pack)
}

func TestGenerate_Stdout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(sampleSlip(false), Config{Format: "text", Stdout: &buf}))
	assert.Contains(t, buf.String(), "Delivery Slip WH/OUT/00001")
}

func TestGenerate_File(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, Generate(sampleSlip(true), Config{Format: "json", OutputDir: dir, Verbose: true, Stdout: &buf}))

	data, err := os.ReadFile(filepath.Join(dir, "WH_OUT_00001_slip.json"))
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.Contains(t, buf.String(), "WH_OUT_00001_slip.json")
}

func TestGenerate_Errors(t *testing.T) {
	err := Generate(sampleSlip(true), Config{Format: "html"})
	assert.EqualError(t, err, "unsupported output format: html")

	err = Generate(sampleSlip(true), Config{Format: "xlsx"})
	assert.EqualError(t, err, "output directory required for xlsx format")
}
