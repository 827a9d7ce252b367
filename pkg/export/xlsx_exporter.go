package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet pairs a worksheet name with its dataset for workbook rendering.
type Sheet struct {
	Name string
	Data Dataset
}

// XLSXExporter renders datasets into xlsx workbooks.
type XLSXExporter struct{}

// NewXLSXExporter builds an xlsx exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render produces a single-sheet workbook for the dataset.
func (e *XLSXExporter) Render(data Dataset, sheetName string) ([]byte, error) {
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	return e.RenderWorkbook([]Sheet{{Name: sheetName, Data: data}})
}

// RenderWorkbook produces one worksheet per sheet entry, preserving order.
func (e *XLSXExporter) RenderWorkbook(sheets []Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one sheet")
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	for i, sheet := range sheets {
		name := sanitizeSheetName(sheet.Name, i)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("create sheet %s: %w", name, err)
			}
		}
		if err := writeSheet(f, name, sheet.Data); err != nil {
			return nil, err
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, data Dataset) error {
	for i, header := range data.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("write xlsx header: %w", err)
		}
	}
	for r, row := range data.Rows {
		for c, header := range data.Headers {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, row[header]); err != nil {
				return fmt.Errorf("write xlsx row: %w", err)
			}
		}
	}
	return nil
}

// sanitizeSheetName keeps worksheet names within the xlsx 31-char limit and
// replaces characters Excel refuses.
func sanitizeSheetName(name string, index int) string {
	if name == "" {
		return fmt.Sprintf("Sheet%d", index+1)
	}
	replacer := []rune(name)
	for i, r := range replacer {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			replacer[i] = '_'
		}
	}
	if len(replacer) > 31 {
		replacer = replacer[:31]
	}
	return string(replacer)
}
