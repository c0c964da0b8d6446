package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pravodoc/pravodoc-backend/internal/contract/domain"
	"github.com/pravodoc/pravodoc-backend/pkg/config"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
)

// Options controls the fixed parts of the contract text and output.
type Options struct {
	City        string
	Executor    string
	FontPaths   []string
	Spreadsheet bool
}

// OptionsFromConfig maps contract settings to render options.
func OptionsFromConfig(cfg *config.ContractConfig) Options {
	return Options{
		City:        cfg.City,
		Executor:    cfg.ExecutorName,
		FontPaths:   cfg.FontPaths,
		Spreadsheet: cfg.Spreadsheet,
	}
}

// Renderer writes the documents of a contract into a directory.
type Renderer struct {
	opts Options
	log  *logger.Logger
}

// New creates a renderer
func New(opts Options, log *logger.Logger) *Renderer {
	return &Renderer{opts: opts, log: log.WithComponent("render")}
}

// Render writes the DOCX, PDF and, when enabled, XLSX files of c into dir.
// Files already written are removed when a later one fails.
func (r *Renderer) Render(ctx context.Context, c *domain.Contract, dir string) (domain.Files, error) {
	if err := ctx.Err(); err != nil {
		return domain.Files{}, err
	}

	font, fontPath, err := LoadFont(r.opts.FontPaths)
	if err != nil {
		return domain.Files{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.Files{}, fmt.Errorf("failed to create contract directory: %w", err)
	}

	base := filepath.Join(dir, c.BaseName())
	files := domain.Files{Docx: base + ".docx", PDF: base + ".pdf"}
	if r.opts.Spreadsheet {
		files.Xlsx = base + ".xlsx"
	}

	content := Build(c, r.opts)
	steps := []struct {
		path  string
		write func() error
	}{
		{files.Docx, func() error { return writeDocxFile(files.Docx, content) }},
		{files.PDF, func() error { return WritePDF(files.PDF, content, font) }},
	}
	if files.Xlsx != "" {
		steps = append(steps, struct {
			path  string
			write func() error
		}{files.Xlsx, func() error { return WriteSchedule(files.Xlsx, c.Number, c.Payments) }})
	}

	for i, step := range steps {
		if err := step.write(); err != nil {
			for _, done := range steps[:i+1] {
				os.Remove(done.path)
			}
			return domain.Files{}, fmt.Errorf("failed to write %s: %w", filepath.Base(step.path), err)
		}
	}

	r.log.Debug().
		Str("contract_number", c.Number).
		Str("font", fontPath).
		Int("files", len(files.Paths())).
		Msg("contract rendered")

	return files, nil
}
