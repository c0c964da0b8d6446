package processor

import (
	"context"
	"time"

	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/domain"
	"github.com/pravodoc/pravodoc-backend/internal/passport/assembler"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
)

// LineReader turns an image into text lines. *ocr.Reader implements it.
type LineReader interface {
	ReadLines(ctx context.Context, image []byte) ([]string, error)
}

// OCRProcessor recognizes passport photos and assembles the fields.
type OCRProcessor struct {
	name      string
	reader    LineReader
	assembler *assembler.Assembler
}

// NewOCRProcessor creates an OCR processor. name distinguishes reader
// setups, e.g. with and without image preprocessing.
func NewOCRProcessor(name string, reader LineReader, asm *assembler.Assembler) *OCRProcessor {
	if asm == nil {
		asm = assembler.New(nil)
	}
	return &OCRProcessor{name: name, reader: reader, assembler: asm}
}

func (p *OCRProcessor) Name() string { return p.name }

func (p *OCRProcessor) CanProcess(source domain.SourceType) bool {
	return source == domain.SourcePhoto
}

func (p *OCRProcessor) Process(ctx context.Context, in domain.Input) (*domain.Result, error) {
	if len(in.Image) == 0 {
		return nil, errors.BadRequest("image is empty")
	}
	start := time.Now()

	lines, err := p.reader.ReadLines(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	record, diag, err := p.assembler.Assemble(ctx, lines)
	if err != nil {
		return nil, err
	}

	return &domain.Result{
		Source:           domain.SourcePhoto,
		Processor:        p.name,
		Record:           record,
		Diagnostics:      diag,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}
