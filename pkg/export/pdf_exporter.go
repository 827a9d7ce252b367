package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into printable documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// LabelBlock is one printable label: a short list of caption/value lines.
type LabelBlock struct {
	Lines []LabelLine
}

// LabelLine pairs a caption with its value.
type LabelLine struct {
	Caption string
	Value   string
}

// RenderLabels creates one framed label block per record, stacked down the page.
func (e *PDFExporter) RenderLabels(blocks []LabelBlock) ([]byte, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("labels require at least one block")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	const blockHeight = 62.0
	for _, block := range blocks {
		if pdf.GetY()+blockHeight > 280 {
			pdf.AddPage()
		}
		top := pdf.GetY()
		pdf.Rect(10, top, 190, blockHeight, "D")
		pdf.SetY(top + 4)
		for _, line := range block.Lines {
			pdf.SetX(14)
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(38, 8, line.Caption, "", 0, "L", false, 0, "")
			pdf.SetFont("Arial", "", 11)
			pdf.CellFormat(144, 8, line.Value, "", 1, "L", false, 0, "")
		}
		pdf.SetY(top + blockHeight + 6)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render labels pdf: %w", err)
	}
	return buf.Bytes(), nil
}
