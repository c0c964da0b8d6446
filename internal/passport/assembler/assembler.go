// Package assembler runs the passport field extractors over OCR output and
// merges their results into a record plus diagnostics.
package assembler

import (
	"context"
	"strings"

	"github.com/pravodoc/pravodoc-backend/internal/passport/domain"
	"github.com/pravodoc/pravodoc-backend/internal/passport/extract"
	"github.com/pravodoc/pravodoc-backend/internal/passport/normalize"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
)

const (
	reasonNoText   = "Текст на изображении не найден"
	reasonNoFields = "Не удалось распознать ни одного поля паспорта"
)

// Assembler turns recognized text lines into a passport record. The zero
// value is usable and never consults a name recognizer.
type Assembler struct {
	names extract.NameRecognizer
}

// New creates an Assembler. names may be nil.
func New(names extract.NameRecognizer) *Assembler {
	return &Assembler{names: names}
}

// Assemble is a convenience for (&Assembler{}).Assemble without a recognizer.
func Assemble(lines []string) (*domain.Record, domain.Diagnostics, error) {
	return (&Assembler{}).Assemble(context.Background(), lines)
}

// Assemble normalizes lines, runs every extractor and merges the results.
//
// A record is returned only when all mandatory fields are present. A
// partial result returns a nil record with diagnostics naming the missing
// fields and a nil error. Empty input or zero recognized fields yield a
// recognition error.
func (a *Assembler) Assemble(ctx context.Context, lines []string) (*domain.Record, domain.Diagnostics, error) {
	normalized := normalize.Lines(lines)
	if len(normalized) == 0 {
		return nil, domain.Diagnostics{}, errors.Recognition(reasonNoText)
	}
	text := strings.Join(normalized, "\n")

	name := extract.FullNameWith(ctx, normalized, a.names)
	series, number := extract.SeriesNumber(text)
	issuedBy := extract.IssuedBy(normalized)
	issued := extract.IssuedDate(text)
	division := extract.DivisionCode(text)

	diag := domain.Diagnostics{RawText: text}
	mark := func(label string, found bool, c domain.Confidence) {
		if found {
			diag.MarkRecognized(label, c)
		} else {
			diag.MarkMissing(label)
		}
	}
	mark(domain.LabelFullName, name.Found(), name.Confidence)
	mark(domain.LabelSeries, series.Found(), series.Confidence)
	mark(domain.LabelNumber, number.Found(), number.Confidence)
	mark(domain.LabelIssuedBy, issuedBy.Found(), issuedBy.Confidence)
	mark(domain.LabelIssuedDate, issued.Found(), issued.Confidence)
	if division.Found() {
		diag.MarkRecognized(domain.LabelDivisionCode, division.Confidence)
	}
	diag.Warn(name.Warning)

	if len(diag.RecognizedFields) == 0 {
		return nil, diag, errors.Recognition(reasonNoFields)
	}

	record := domain.Record{
		FullName:     name.Value,
		Series:       series.Value,
		Number:       number.Value,
		IssuedBy:     issuedBy.Value,
		IssuedDate:   issued.Value,
		DivisionCode: division.Value,
	}
	if !diag.Complete() || !record.Complete() {
		return nil, diag, nil
	}
	return &record, diag, nil
}
