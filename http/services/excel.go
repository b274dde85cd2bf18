package services

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportDefaulters renders the class-wise defaulter report as an XLSX
// workbook, one sheet per class.
func ExportDefaulters(report *DefaulterReport) (*excelize.File, error) {
	f := excelize.NewFile()

	headers := []string{"Student ID", "Name", "Section", "Father Name", "Father Contact", "Total Fee", "Total Paid", "Due"}

	first := true
	for _, class := range report.Classes() {
		sheet := sheetName(class)
		if first {
			// Rename the default sheet instead of leaving it empty.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("error naming sheet: %w", err)
			}
			first = false
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("error creating sheet: %w", err)
			}
		}

		for col, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for row, d := range report.Defaulters[class] {
			values := []interface{}{d.StudentID, d.Name, d.Section, d.FatherName, d.FatherContact, d.TotalFee, d.TotalPaid, d.Due}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(sheet, cell, v)
			}
		}
	}

	if first {
		// No defaulters at all; keep a single empty sheet with headers.
		for col, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue("Sheet1", cell, h)
		}
	}

	return f, nil
}

// sheetName keeps class names within Excel's 31-char sheet name limit.
func sheetName(class string) string {
	if len(class) > 31 {
		return class[:31]
	}
	return class
}
