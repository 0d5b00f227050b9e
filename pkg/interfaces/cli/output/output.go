package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockvalued/pkg/application/dto"
	"github.com/vsinha/stockvalued/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Stdout receives the rendered slip when no output directory is set
	Stdout io.Writer
}

// Generate renders slip in the configured format, to Stdout or to a file of
// the output directory
func Generate(slip *dto.DeliverySlip, config Config) error {
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}

	switch config.Format {
	case "text":
		return emit(slip, config, "txt", func(w io.Writer) error { return WriteText(w, slip) })
	case "json":
		return emit(slip, config, "json", func(w io.Writer) error { return WriteJSON(w, slip) })
	case "csv":
		return emit(slip, config, "csv", func(w io.Writer) error { return WriteCSV(w, slip) })
	case "xlsx":
		if config.OutputDir == "" {
			return fmt.Errorf("output directory required for xlsx format")
		}
		return emit(slip, config, "xlsx", func(w io.Writer) error { return WriteXLSX(w, slip) })
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// FileName returns the file a slip is saved to for a given extension
func FileName(slip *dto.DeliverySlip, ext string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(slip.PickingName)
	if name == "" {
		name = fmt.Sprintf("picking_%d", slip.PickingID)
	}
	return name + "_slip." + ext
}

func emit(slip *dto.DeliverySlip, config Config, ext string, write func(io.Writer) error) error {
	if config.OutputDir == "" {
		return write(config.Stdout)
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, FileName(slip, ext))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}

	if config.Verbose {
		fmt.Fprintf(config.Stdout, "💾 Delivery slip saved to: %s\n", filename)
	}
	return nil
}

// WriteText writes a human-readable delivery slip
func WriteText(w io.Writer, slip *dto.DeliverySlip) error {
	var b strings.Builder

	fmt.Fprintf(&b, "📦 Delivery Slip %s\n", slip.PickingName)
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", len(slip.PickingName)+17))
	if slip.PartnerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", slip.PartnerName)
	}
	if slip.SaleOrderName != "" {
		fmt.Fprintf(&b, "Order: %s\n", slip.SaleOrderName)
	}
	b.WriteString("\n")

	header := columns(slip.Valued)
	writeTable(&b, header, lineRows(slip, slip.Lines))

	for _, section := range slip.Packages {
		fmt.Fprintf(&b, "\nPackage %s\n", section.Package)
		writeTable(&b, header, lineRows(slip, section.Lines))
	}

	if slip.Valued && slip.Totals != nil {
		b.WriteString("\n")
		for _, row := range totalRows(slip) {
			fmt.Fprintf(&b, "%-30s %15s\n", row[0], row[1])
		}
	}

	if len(slip.BackorderNames) > 0 {
		fmt.Fprintf(&b, "\nRemaining quantities will be delivered in: %s\n", strings.Join(slip.BackorderNames, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTable(b *strings.Builder, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, col := range header {
		widths[i] = len(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := len([]rune(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	writeRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
		b.WriteString("\n")
	}

	writeRow(header)
	rule := make([]string, len(header))
	for i, width := range widths {
		rule[i] = strings.Repeat("-", width)
	}
	writeRow(rule)
	for _, row := range rows {
		writeRow(row)
	}
}

// WriteCSV writes one row per report line, packaged lines carrying their package
func WriteCSV(w io.Writer, slip *dto.DeliverySlip) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(append([]string{"Package"}, columns(slip.Valued)...)); err != nil {
		return err
	}
	for _, row := range lineRows(slip, slip.Lines) {
		if err := writer.Write(append([]string{""}, row...)); err != nil {
			return err
		}
	}
	for _, section := range slip.Packages {
		for _, row := range lineRows(slip, section.Lines) {
			if err := writer.Write(append([]string{section.Package}, row...)); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

type jsonLine struct {
	Product           string           `json:"product"`
	Description       string           `json:"description,omitempty"`
	QtyOrdered        decimal.Decimal  `json:"qty_ordered"`
	Quantity          *decimal.Decimal `json:"quantity"`
	UoM               string           `json:"uom,omitempty"`
	Packaging         string           `json:"packaging,omitempty"`
	PackagingQty      *decimal.Decimal `json:"packaging_qty,omitempty"`
	PackagingQuantity *decimal.Decimal `json:"packaging_quantity,omitempty"`
	PriceUnit         *decimal.Decimal `json:"price_unit,omitempty"`
	Discount          *decimal.Decimal `json:"discount,omitempty"`
	Taxes             []string         `json:"taxes,omitempty"`
	PriceSubtotal     *decimal.Decimal `json:"price_subtotal,omitempty"`
}

type jsonPackage struct {
	Package string     `json:"package"`
	Lines   []jsonLine `json:"lines"`
}

type jsonSlip struct {
	Picking    string              `json:"picking"`
	Partner    string              `json:"partner,omitempty"`
	SaleOrder  string              `json:"sale_order,omitempty"`
	Valued     bool                `json:"valued"`
	Currency   string              `json:"currency,omitempty"`
	Lines      []jsonLine          `json:"lines"`
	Packages   []jsonPackage       `json:"packages,omitempty"`
	Untaxed    *decimal.Decimal    `json:"amount_untaxed,omitempty"`
	Tax        *decimal.Decimal    `json:"amount_tax,omitempty"`
	Total      *decimal.Decimal    `json:"amount_total,omitempty"`
	TaxTotals  *entities.TaxTotals `json:"tax_totals,omitempty"`
	Backorders []string            `json:"backorders,omitempty"`
}

// WriteJSON writes the slip as an indented JSON document. Prices are only
// included on valued slips.
func WriteJSON(w io.Writer, slip *dto.DeliverySlip) error {
	doc := jsonSlip{
		Picking:    slip.PickingName,
		Partner:    slip.PartnerName,
		SaleOrder:  slip.SaleOrderName,
		Valued:     slip.Valued,
		Lines:      jsonLines(slip, slip.Lines),
		Backorders: slip.BackorderNames,
	}
	for _, section := range slip.Packages {
		doc.Packages = append(doc.Packages, jsonPackage{Package: section.Package, Lines: jsonLines(slip, section.Lines)})
	}
	if slip.Valued {
		if slip.Currency != nil {
			doc.Currency = slip.Currency.Name
		}
		if slip.Totals != nil {
			doc.Untaxed = &slip.Totals.AmountUntaxed
			doc.Tax = &slip.Totals.AmountTax
			doc.Total = &slip.Totals.AmountTotal
			doc.TaxTotals = slip.Totals.TaxTotals
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

func jsonLines(slip *dto.DeliverySlip, lines []*dto.AggregatedLine) []jsonLine {
	out := make([]jsonLine, 0, len(lines))
	for _, line := range lines {
		entry := jsonLine{
			Product:     line.Name,
			Description: line.Description,
			QtyOrdered:  line.QtyOrdered,
		}
		if line.Quantity.Valid {
			quantity := line.Quantity.Decimal
			entry.Quantity = &quantity
		}
		if line.ProductUoM != nil {
			entry.UoM = line.ProductUoM.Name
		}
		if line.Packaging != nil {
			entry.Packaging = line.Packaging.Name
			entry.PackagingQty = &line.PackagingQty
			entry.PackagingQuantity = &line.PackagingQuantity
		}
		if slip.Valued {
			entry.PriceUnit = &line.PriceUnit
			entry.Discount = &line.Discount
			entry.Taxes = line.Taxes.Names()
			subtotal := roundAmount(slip.Currency, line.PriceSubtotal)
			entry.PriceSubtotal = &subtotal
		}
		out = append(out, entry)
	}
	return out
}

// columns returns the report columns, prices only on valued slips
func columns(valued bool) []string {
	header := []string{"Product", "Description", "Ordered", "Delivered", "UoM", "Packaging"}
	if valued {
		header = append(header, "Unit Price", "Discount", "Taxes", "Amount")
	}
	return header
}

func lineRows(slip *dto.DeliverySlip, lines []*dto.AggregatedLine) [][]string {
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		row := []string{
			line.Name,
			line.Description,
			formatQty(line.QtyOrdered),
			"",
			uomName(line.ProductUoM),
			packagingLabel(line),
		}
		if line.Quantity.Valid {
			row[3] = formatQty(line.Quantity.Decimal)
		}
		if slip.Valued {
			row = append(row,
				formatAmount(slip.Currency, line.PriceUnit),
				formatDiscount(line.Discount),
				strings.Join(line.Taxes.Names(), ", "),
				formatAmount(slip.Currency, line.PriceSubtotal),
			)
		}
		rows = append(rows, row)
	}
	return rows
}

// totalRows returns label/amount pairs: untaxed amount, one row per tax
// group, then the total
func totalRows(slip *dto.DeliverySlip) [][2]string {
	totals := slip.Totals
	rows := [][2]string{{"Untaxed Amount", formatMoney(slip.Currency, totals.AmountUntaxed)}}
	if totals.TaxTotals != nil {
		for _, subtotal := range totals.TaxTotals.Subtotals {
			for _, group := range subtotal.TaxGroups {
				rows = append(rows, [2]string{group.GroupName, formatMoney(slip.Currency, group.TaxAmountCurrency)})
			}
		}
	}
	rows = append(rows, [2]string{"Total", formatMoney(slip.Currency, totals.AmountTotal)})
	return rows
}

func uomName(uom *entities.UoM) string {
	if uom == nil {
		return ""
	}
	return uom.Name
}

func packagingLabel(line *dto.AggregatedLine) string {
	if line.Packaging == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", formatQty(line.PackagingQty), line.Packaging.Name)
}

func formatQty(qty decimal.Decimal) string {
	return qty.Round(2).String()
}

func formatDiscount(discount decimal.Decimal) string {
	if discount.IsZero() {
		return ""
	}
	return discount.String() + "%"
}

func decimalPlaces(currency *entities.Currency) int32 {
	if currency == nil || !currency.Rounding.IsPositive() || currency.Rounding.Exponent() >= 0 {
		return 2
	}
	return -currency.Rounding.Exponent()
}

func roundAmount(currency *entities.Currency, amount decimal.Decimal) decimal.Decimal {
	if currency == nil {
		return amount.Round(2)
	}
	return currency.Round(amount)
}

func formatAmount(currency *entities.Currency, amount decimal.Decimal) string {
	return roundAmount(currency, amount).StringFixed(decimalPlaces(currency))
}

func formatMoney(currency *entities.Currency, amount decimal.Decimal) string {
	formatted := formatAmount(currency, amount)
	if currency != nil && currency.Symbol != "" {
		return formatted + " " + currency.Symbol
	}
	return formatted
}
