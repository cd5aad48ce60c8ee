package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	portraitWidth  = 190.0
	landscapeWidth = 277.0
	rowHeight      = 7.0
)

// Column describes one table column. Width is in millimetres; zero widths
// share the space left by the fixed ones.
type Column struct {
	Header string
	Width  float64
	Align  string
}

// Dataset is the content of one tabular report.
type Dataset struct {
	Title    string
	Subtitle []string
	Columns  []Column
	Rows     [][]string
	Footer   []string
}

// PDFExporter renders datasets into paginated A4 tables.
type PDFExporter struct {
	font string
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{font: "Arial"}
}

// Render lays the dataset out as a table, switching to landscape when the
// columns do not fit a portrait page. The header row repeats on every page.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}
	orientation, usable := "P", portraitWidth
	if fixedWidth(data.Columns) > portraitWidth || len(data.Columns) > 8 {
		orientation, usable = "L", landscapeWidth
	}
	widths := resolveWidths(data.Columns, usable)

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(false, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(e.font, "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont(e.font, "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(data.Title), "", 1, "C", false, 0, "")
	}
	pdf.SetFont(e.font, "", 9)
	for _, line := range data.Subtitle {
		pdf.CellFormat(0, 5, line, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	header := func() {
		pdf.SetFont(e.font, "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, col := range data.Columns {
			pdf.CellFormat(widths[i], 8, col.Header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(e.font, "", 8)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range data.Rows {
		if pdf.GetY()+rowHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		for i, col := range data.Columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			pdf.CellFormat(widths[i], rowHeight, value, "1", 0, col.Align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(data.Footer) > 0 {
		pdf.Ln(4)
		pdf.SetFont(e.font, "", 9)
		for _, line := range data.Footer {
			if pdf.GetY()+5 > pageHeight-bottom {
				pdf.AddPage()
			}
			pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func fixedWidth(cols []Column) float64 {
	var total float64
	for _, c := range cols {
		total += c.Width
	}
	return total
}

func resolveWidths(cols []Column, usable float64) []float64 {
	widths := make([]float64, len(cols))
	flexible := 0
	for i, c := range cols {
		widths[i] = c.Width
		if c.Width <= 0 {
			flexible++
		}
	}
	if flexible == 0 {
		return widths
	}
	share := (usable - fixedWidth(cols)) / float64(flexible)
	if share < 10 {
		share = 10
	}
	for i := range widths {
		if widths[i] <= 0 {
			widths[i] = share
		}
	}
	return widths
}
