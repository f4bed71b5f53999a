package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Field is one labelled value in a Summary.
type Field struct {
	Label string
	Value string
}

// Summary is a one-page titled list of fields.
type Summary struct {
	Title       string
	Subtitle    string
	Fields      []Field
	GeneratedAt time.Time
}

// PDF renders the summary as an A4 portrait document.
func (s Summary) PDF() ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(s.Title, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(s.Title), "", 1, "C", false, 0, "")
	if s.Subtitle != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, tr(s.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	for _, f := range s.Fields {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(70, 9, tr(f.Label), "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 9, tr(f.Value), "1", 1, "", false, 0, "")
	}

	if !s.GeneratedAt.IsZero() {
		pdf.Ln(8)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, "Generated "+s.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
