package processor

import (
	"context"
	"time"

	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/domain"
	passport "github.com/pravodoc/pravodoc-backend/internal/passport/domain"
	"github.com/pravodoc/pravodoc-backend/internal/passport/manual"
)

// ManualProcessor parses typed "label: value" passport data.
type ManualProcessor struct{}

// NewManualProcessor creates a manual-entry processor
func NewManualProcessor() *ManualProcessor {
	return &ManualProcessor{}
}

func (p *ManualProcessor) Name() string { return "manual" }

func (p *ManualProcessor) CanProcess(source domain.SourceType) bool {
	return source == domain.SourceManual
}

func (p *ManualProcessor) Process(_ context.Context, in domain.Input) (*domain.Result, error) {
	start := time.Now()

	record, err := manual.Parse(in.Text)
	if err != nil {
		return nil, err
	}

	var diag passport.Diagnostics
	for _, label := range passport.MandatoryLabels {
		diag.MarkRecognized(label, passport.ConfidenceHigh)
	}
	if record.DivisionCode != "" {
		diag.MarkRecognized(passport.LabelDivisionCode, passport.ConfidenceHigh)
	}

	return &domain.Result{
		Source:           domain.SourceManual,
		Processor:        p.Name(),
		Record:           &record,
		Diagnostics:      diag,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}
