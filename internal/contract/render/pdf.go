package render

import (
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFont      = "ContractSerif"
	pdfMargin    = 20.0
	pdfPageWidth = 210.0
	pdfLine      = 6.0
)

var pdfColumns = [3]float64{30, 60, 40}

// LoadFont returns the contents of the first readable font in paths. PDF
// output needs a TrueType font with Cyrillic glyphs.
func LoadFont(paths []string) ([]byte, string, error) {
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err == nil && len(data) > 0 {
			return data, p, nil
		}
	}
	return nil, "", fmt.Errorf("no usable font among %v", paths)
}

// WritePDF renders c as an A4 document using the given TrueType font.
func WritePDF(path string, c Content, font []byte) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddUTF8FontFromBytes(pdfFont, "", font)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", font)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 14)
	pdf.MultiCell(0, 7, c.Title, "", "C", false)
	pdf.MultiCell(0, 7, c.Subtitle, "", "C", false)
	pdf.Ln(3)

	pdf.SetFont(pdfFont, "", 12)
	pdf.MultiCell(0, pdfLine, c.City, "", "C", false)
	pdf.MultiCell(0, pdfLine, c.Date, "", "C", false)
	pdf.Ln(4)

	for _, run := range c.Intro {
		style := ""
		if run.Bold {
			style = "B"
		}
		pdf.SetFont(pdfFont, style, 12)
		pdf.Write(pdfLine, run.Text)
	}
	pdf.Ln(pdfLine + 2)

	pdf.SetFont(pdfFont, "", 12)
	pdf.MultiCell(0, pdfLine, c.Summary, "", "J", false)
	pdf.Ln(2)

	for _, s := range c.Sections {
		pdf.SetFont(pdfFont, "B", 12)
		pdf.MultiCell(0, pdfLine, s.Title, "", "C", false)
		pdf.SetFont(pdfFont, "", 12)
		pdf.MultiCell(0, pdfLine, s.Text, "", "J", false)
		pdf.Ln(2)
	}

	pdf.Ln(4)
	pdf.SetFont(pdfFont, "B", 12)
	pdf.MultiCell(0, pdfLine, c.Schedule, "", "L", false)

	left := (pdfPageWidth - pdfColumns[0] - pdfColumns[1] - pdfColumns[2]) / 2
	pdf.SetFillColor(211, 211, 211)
	pdf.SetX(left)
	for i, h := range c.Header {
		pdf.CellFormat(pdfColumns[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFont, "", 12)
	for _, row := range c.Rows {
		pdf.SetX(left)
		for i, v := range row {
			pdf.CellFormat(pdfColumns[i], 8, v, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.OutputFileAndClose(path)
}
