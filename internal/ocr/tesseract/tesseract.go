// Package tesseract implements ocr.Engine with the Tesseract library.
package tesseract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/pravodoc/pravodoc-backend/internal/ocr"
)

// Config selects recognition languages and the page segmentation mode.
type Config struct {
	Languages      []string
	PageSegMode    int
	TessdataPrefix string
}

// Engine creates a gosseract client per call; clients are not safe for
// concurrent use.
type Engine struct {
	cfg           Config
	clientFactory func() *gosseract.Client
}

// New returns an engine for cfg, defaulting to Russian plus English.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"rus", "eng"}
	}
	if cfg.PageSegMode < 0 || cfg.PageSegMode > int(gosseract.PSM_RAW_LINE) {
		return nil, fmt.Errorf("invalid page segmentation mode %d", cfg.PageSegMode)
	}
	return &Engine{cfg: cfg, clientFactory: gosseract.NewClient}, nil
}

// Factory adapts New to ocr.Factory.
func Factory(cfg Config) ocr.Factory {
	return func() (ocr.Engine, error) {
		return New(cfg)
	}
}

func (e *Engine) configure(c *gosseract.Client) error {
	if e.cfg.TessdataPrefix != "" {
		c.TessdataPrefix = e.cfg.TessdataPrefix
	}
	if err := c.SetLanguage(e.cfg.Languages...); err != nil {
		return fmt.Errorf("set languages: %w", err)
	}
	if e.cfg.PageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PageSegMode)); err != nil {
			return fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if err := c.SetVariable(gosseract.SettableVariable("preserve_interword_spaces"), strconv.Itoa(1)); err != nil {
		return fmt.Errorf("set variable: %w", err)
	}
	return nil
}

// Recognize runs Tesseract over image and splits the result into lines.
func (e *Engine) Recognize(ctx context.Context, image []byte) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := e.configure(c); err != nil {
		return nil, err
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// Close is a no-op; clients are released after every call.
func (e *Engine) Close() error { return nil }
