package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Monthly Hours"

// WriteMonthlyXLSX renders a monthly report as an Excel workbook.
func WriteMonthlyXLSX(rep MonthlyReport, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := []interface{}{"Student", "Hours", "Month"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, row := range rep.Rows {
		rowNum := i + 2
		values := []interface{}{row.StudentName, row.Hours, rep.Month}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", rowNum, err)
			}
		}
	}

	totalRow := len(rep.Rows) + 2
	if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", totalRow), "Total"); err != nil {
		return fmt.Errorf("write total label: %w", err)
	}
	if err := f.SetCellValue(sheetName, fmt.Sprintf("B%d", totalRow), rep.TotalHours); err != nil {
		return fmt.Errorf("write total: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
