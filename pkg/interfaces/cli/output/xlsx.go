package output

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/vsinha/stockvalued/pkg/application/dto"
)

const slipSheet = "Delivery Slip"

// WriteXLSX writes the slip as a spreadsheet: a title block, the report lines
// with their package, then the totals of valued slips
func WriteXLSX(w io.Writer, slip *dto.DeliverySlip) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", slipSheet); err != nil {
		return err
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}

	setRow := func(row int, values []string) error {
		for i, value := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(slipSheet, cell, value); err != nil {
				return err
			}
		}
		return nil
	}

	if err := f.SetCellValue(slipSheet, "A1", "Delivery Slip "+slip.PickingName); err != nil {
		return err
	}
	if err := f.SetCellStyle(slipSheet, "A1", "A1", titleStyle); err != nil {
		return err
	}
	if err := setRow(2, []string{"Customer", slip.PartnerName}); err != nil {
		return err
	}
	if err := setRow(3, []string{"Order", slip.SaleOrderName}); err != nil {
		return err
	}

	header := append([]string{"Package"}, columns(slip.Valued)...)
	headerRow := 5
	if err := setRow(headerRow, header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), headerRow)
	if err := f.SetCellStyle(slipSheet, fmt.Sprintf("A%d", headerRow), last, boldStyle); err != nil {
		return err
	}

	row := headerRow + 1
	for _, values := range lineRows(slip, slip.Lines) {
		if err := setRow(row, append([]string{""}, values...)); err != nil {
			return err
		}
		row++
	}
	for _, section := range slip.Packages {
		for _, values := range lineRows(slip, section.Lines) {
			if err := setRow(row, append([]string{section.Package}, values...)); err != nil {
				return err
			}
			row++
		}
	}

	if slip.Valued && slip.Totals != nil {
		row++
		for _, total := range totalRows(slip) {
			if err := setRow(row, []string{"", total[0], total[1]}); err != nil {
				return err
			}
			row++
		}
	}

	if len(slip.BackorderNames) > 0 {
		row++
		if err := setRow(row, append([]string{"Backorders"}, slip.BackorderNames...)); err != nil {
			return err
		}
	}

	widths := []float64{12, 30, 24, 10, 10, 10, 18, 12, 10, 16, 14}
	for i, width := range widths[:len(header)] {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(slipSheet, col, col, width); err != nil {
			return err
		}
	}

	return f.Write(w)
}
