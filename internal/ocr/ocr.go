// Package ocr turns passport photos into text lines. The engine behind it
// is created lazily, once per Reader, and shared by all callers.
package ocr

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/pravodoc/pravodoc-backend/pkg/errors"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
)

const (
	reasonUnavailable = "Сервис распознавания недоступен"
	reasonFailed      = "Не удалось распознать изображение"
)

// Engine recognizes text in an encoded image and returns it line by line,
// top to bottom. Implementations must be safe for concurrent use.
type Engine interface {
	Recognize(ctx context.Context, image []byte) ([]string, error)
	Close() error
}

// Factory constructs an Engine. It is called at most once per Reader.
type Factory func() (Engine, error)

// Reader owns the lazily constructed engine.
type Reader struct {
	factory  Factory
	log      *logger.Logger
	prep     bool
	minWidth int

	once      sync.Once
	engine    Engine
	initErr   error
	closeOnce sync.Once
	closeErr  error
}

var errClosed = errors.New("READER_CLOSED", "ocr reader closed", http.StatusServiceUnavailable)

// Option configures a Reader.
type Option func(*Reader)

// WithPreprocess enables grayscale, contrast stretching and upscaling of
// images narrower than minWidth before recognition.
func WithPreprocess(minWidth int) Option {
	return func(r *Reader) {
		r.prep = true
		r.minWidth = minWidth
	}
}

// WithLogger sets the reader's logger.
func WithLogger(log *logger.Logger) Option {
	return func(r *Reader) { r.log = log }
}

// NewReader creates a Reader. The engine is not built until first use.
func NewReader(factory Factory, opts ...Option) *Reader {
	r := &Reader{factory: factory, log: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reader) init() (Engine, error) {
	r.once.Do(func() {
		r.engine, r.initErr = r.factory()
		if r.initErr != nil {
			r.log.Error().Err(r.initErr).Msg("failed to initialize OCR engine")
		}
	})
	return r.engine, r.initErr
}

// ReadLines recognizes image and returns its non-empty trimmed lines.
// Any engine failure is a recognition error without partial output.
func (r *Reader) ReadLines(ctx context.Context, image []byte) ([]string, error) {
	engine, err := r.init()
	if err != nil {
		return nil, errors.Recognition(reasonUnavailable)
	}

	input := image
	if r.prep {
		processed, err := Preprocess(image, r.minWidth)
		if err != nil {
			r.log.Debug().Err(err).Msg("image preprocessing skipped")
		} else {
			input = processed
		}
	}

	raw, err := engine.Recognize(ctx, input)
	if err != nil {
		r.log.Warn().Err(err).Msg("OCR engine failed")
		return nil, errors.Recognition(reasonFailed)
	}

	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		for _, part := range strings.Split(line, "\n") {
			if part = strings.TrimSpace(part); part != "" {
				lines = append(lines, part)
			}
		}
	}
	r.log.Debug().Int("lines", len(lines)).Msg("image recognized")
	return lines, nil
}

// Close releases the engine if it was created. It waits for an engine
// that is being built, and a reader closed before first use never builds
// one. Calling Close again is a no-op.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		r.once.Do(func() { r.initErr = errClosed })
		if r.engine != nil {
			r.closeErr = r.engine.Close()
		}
	})
	return r.closeErr
}
