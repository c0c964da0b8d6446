package service

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pravodoc/pravodoc-backend/internal/contract/domain"
	"github.com/pravodoc/pravodoc-backend/internal/contract/repository"
	"github.com/pravodoc/pravodoc-backend/internal/dates"
	passport "github.com/pravodoc/pravodoc-backend/internal/passport/domain"
	"github.com/pravodoc/pravodoc-backend/internal/schedule"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
	"github.com/pravodoc/pravodoc-backend/pkg/messaging"
)

// ErrFilesMissing is returned by LastContract when the registry knows the
// contract but its documents are gone from disk.
var ErrFilesMissing = fmt.Errorf("contract files missing: %w", errors.ErrNotFound)

// Publisher publishes domain events. *messaging.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Renderer writes the documents of a contract into a directory.
type Renderer interface {
	Render(ctx context.Context, c *domain.Contract, dir string) (domain.Files, error)
}

// Service numbers, renders and records contracts
type Service struct {
	counter   repository.Counter
	registry  repository.Registry
	renderer  Renderer
	publisher Publisher
	root      string
	now       func() time.Time
	log       *logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for contract dates
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a contract service writing documents under root
func NewService(counter repository.Counter, registry repository.Registry, renderer Renderer, publisher Publisher, root string, log *logger.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = messaging.Discard{Logger: log}
	}
	s := &Service{
		counter:   counter,
		registry:  registry,
		renderer:  renderer,
		publisher: publisher,
		root:      root,
		now:       time.Now,
		log:       log.WithComponent("contract"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare validates the inputs, builds the payment schedule and assigns the
// next contract number. The counter advances even if the draft is never
// confirmed.
func (s *Service) Prepare(ctx context.Context, rec passport.Record, total int64, firstPayment time.Time) (*domain.Contract, error) {
	if missing := rec.Missing(); len(missing) > 0 {
		return nil, errors.Format("Неполные паспортные данные", missing...)
	}

	payments, err := schedule.Build(firstPayment, total)
	if err != nil {
		return nil, err
	}

	n, err := s.counter.Next(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "COUNTER_ERROR", "failed to allocate contract number", http.StatusInternalServerError)
	}

	now := s.now()
	return &domain.Contract{
		Number:       domain.Number(n, rec.FullName),
		Passport:     rec,
		TotalAmount:  total,
		FirstPayment: firstPayment,
		Payments:     payments,
		Date:         dates.Date(now.Year(), now.Month(), now.Day()),
	}, nil
}

// Issue renders a prepared contract, records it for the user and announces
// it. Event publishing failures are logged and otherwise ignored.
func (s *Service) Issue(ctx context.Context, userID string, c *domain.Contract) (*domain.Entry, error) {
	log := s.log.WithUserID(userID)

	files, err := s.renderer.Render(ctx, c, c.Dir(s.root))
	if err != nil {
		log.Error().Err(err).Str("contract_number", c.Number).Msg("contract rendering failed")
		return nil, errors.Wrap(err, "RENDER_ERROR", "failed to render contract documents", http.StatusInternalServerError)
	}

	entry := domain.NewEntry(userID, c, files, s.now())
	if err := s.registry.Append(ctx, userID, entry); err != nil {
		return nil, err
	}

	log.Info().
		Str("contract_number", c.Number).
		Int("payments", len(c.Payments)).
		Msg("contract generated")

	event := messaging.ContractGeneratedEvent{
		ContractNumber:   c.Number,
		UserID:           userID,
		Client:           c.Passport.FullName,
		TotalAmount:      c.TotalAmount,
		FirstPaymentDate: entry.FirstPaymentDate,
		Payments:         len(c.Payments),
		Files:            files.Paths(),
		GeneratedAt:      entry.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, messaging.EventContractGenerated, event); err != nil {
		log.Warn().Err(err).Str("contract_number", c.Number).Msg("failed to publish contract event")
	}

	return entry, nil
}

// Generate prepares and issues a contract in one step
func (s *Service) Generate(ctx context.Context, userID string, rec passport.Record, total int64, firstPayment time.Time) (*domain.Entry, error) {
	c, err := s.Prepare(ctx, rec, total, firstPayment)
	if err != nil {
		return nil, err
	}
	return s.Issue(ctx, userID, c)
}

// LastContract returns the user's most recent contract. It fails with a not
// found error when there is none or when its files are gone.
func (s *Service) LastContract(ctx context.Context, userID string) (*domain.Entry, error) {
	entry, err := s.registry.Last(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, p := range []string{entry.DocxPath, entry.PDFPath} {
		if _, err := os.Stat(p); err != nil {
			s.log.WithUserID(userID).Warn().
				Str("contract_number", entry.ContractNumber).
				Str("path", p).
				Msg("contract file missing")
			return nil, errors.Wrap(ErrFilesMissing, "NOT_FOUND", "contract files not found", http.StatusNotFound)
		}
	}
	return entry, nil
}
