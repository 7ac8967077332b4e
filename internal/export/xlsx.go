package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"workshop/internal/domain/reports"
)

const sheetName = "Report"

type XLSX struct {
	Formatter Formatter
}

func (r XLSX) Render(w io.Writer, report reports.Report) error {
	f := r.Formatter
	t := f.table(report)

	file := excelize.NewFile()
	defer file.Close()
	if err := file.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	headerStyle, err := file.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	rowNum := 1
	if err := file.SetCellValue(sheetName, cellName(1, rowNum), t.title); err != nil {
		return err
	}
	_ = file.SetCellStyle(sheetName, cellName(1, rowNum), cellName(1, rowNum), bold)
	rowNum++
	for _, line := range f.header(report) {
		if err := file.SetCellValue(sheetName, cellName(1, rowNum), line); err != nil {
			return err
		}
		rowNum++
	}
	rowNum++

	headerRow := rowNum
	if err := writeRow(file, rowNum, t.headers); err != nil {
		return err
	}
	_ = file.SetCellStyle(sheetName, cellName(1, headerRow), cellName(len(t.headers), headerRow), headerStyle)
	rowNum++
	for _, row := range t.rows {
		if err := writeRow(file, rowNum, row); err != nil {
			return err
		}
		rowNum++
	}
	if err := writeRow(file, rowNum, t.total); err != nil {
		return err
	}
	_ = file.SetCellStyle(sheetName, cellName(1, rowNum), cellName(len(t.total), rowNum), bold)

	if err := file.SetColWidth(sheetName, "A", "F", 20); err != nil {
		return fmt.Errorf("set widths: %w", err)
	}
	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeRow(file *excelize.File, rowNum int, values []string) error {
	for i, v := range values {
		if err := file.SetCellValue(sheetName, cellName(i+1, rowNum), v); err != nil {
			return fmt.Errorf("set cell: %w", err)
		}
	}
	return nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
