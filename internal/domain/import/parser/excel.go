package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

// readWorkbook returns the non-empty rows of the first sheet with trimmed cells
func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		empty := true
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.TrimSpace(cell)
			if cells[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		out = append(out, cells)
	}
	return out, nil
}

// TemplateXLSX returns the kind's template as a single-sheet workbook
func TemplateXLSX(kind records.Kind) (string, []byte, error) {
	_, csvData, err := Template(kind)
	if err != nil {
		return "", nil, err
	}
	rows := Tokenize(string(csvData))

	f := excelize.NewFile()
	defer f.Close()

	sheet := string(kind)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return "", nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return "", nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, bold); err != nil {
		return "", nil, fmt.Errorf("failed to style header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return fmt.Sprintf("%s_template.xlsx", kind), buf.Bytes(), nil
}
