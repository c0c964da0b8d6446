package service

import (
	"context"
	"net/http"
	"time"

	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/domain"
	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/processor"
	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/storage"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
	"github.com/pravodoc/pravodoc-backend/pkg/messaging"
)

// Publisher publishes domain events. *messaging.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Service orchestrates passport processing: dispatch → pick best result → cleanup
type Service struct {
	registry  *processor.Registry
	storage   *storage.TempStorage
	photos    *storage.PhotoArchive
	publisher Publisher
	timeout   time.Duration
	log       *logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithPhotoArchive keeps a copy of every uploaded photo
func WithPhotoArchive(a *storage.PhotoArchive) Option {
	return func(s *Service) { s.photos = a }
}

// WithTimeout bounds a single recognition run
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a new passport processing service
func NewService(registry *processor.Registry, store *storage.TempStorage, publisher Publisher, log *logger.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = messaging.Discard{Logger: log}
	}
	s := &Service{
		registry:  registry,
		storage:   store,
		publisher: publisher,
		timeout:   60 * time.Second,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recognize runs photo recognition synchronously. The image bytes are
// zeroed before returning. A partial result is returned without error.
func (s *Service) Recognize(ctx context.Context, userID string, image []byte) (*domain.Result, error) {
	if err := checkImage(image); err != nil {
		storage.ZeroBytes(image)
		return nil, err
	}
	return s.recognize(ctx, "", userID, image)
}

// StartRecognition creates a new job and processes the photo asynchronously.
// Returns the job immediately so the caller can poll for results.
func (s *Service) StartRecognition(ctx context.Context, userID string, image []byte) (*domain.Job, error) {
	if err := checkImage(image); err != nil {
		storage.ZeroBytes(image)
		return nil, err
	}

	jobID := storage.GenerateJobID()
	s.storage.StoreJob(&domain.Job{
		JobID:     jobID,
		UserID:    userID,
		Status:    domain.StatusProcessing,
		CreatedAt: time.Now(),
	})

	// Detached so the request cancellation doesn't kill processing
	go s.processAsync(context.WithoutCancel(ctx), jobID, userID, image)

	return s.storage.GetJob(jobID), nil
}

func (s *Service) processAsync(ctx context.Context, jobID, userID string, image []byte) {
	result, err := s.recognize(ctx, jobID, userID, image)

	s.storage.UpdateJob(jobID, func(j *domain.Job) {
		switch {
		case err != nil:
			j.Status = domain.StatusFailed
			j.ErrorCode, j.Error = errorInfo(err)
		case result.Complete():
			j.Status = domain.StatusCompleted
			j.Result = result
		default:
			j.Status = domain.StatusPartial
			j.Result = result
		}
	})
}

func (s *Service) recognize(ctx context.Context, jobID, userID string, image []byte) (*domain.Result, error) {
	log := s.log.WithUserID(userID)
	if jobID != "" {
		log = log.WithJobID(jobID)
	}

	var photoPath string
	if s.photos != nil {
		path, err := s.photos.Save(userID, image)
		if err != nil {
			log.Warn().Err(err).Msg("failed to archive passport photo")
		}
		photoPath = path
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	result, err := s.run(ctx, log, domain.SourcePhoto, domain.Input{Image: image})
	cancel()

	// Zero image data immediately after processing
	storage.ZeroBytes(image)

	if err != nil {
		code, _ := errorInfo(err)
		log.Warn().Err(err).Msg("passport recognition failed")
		s.publish(ctx, log, messaging.EventPassportFailed, messaging.PassportFailedEvent{
			JobID:     jobID,
			UserID:    userID,
			ErrorCode: code,
		})
		return nil, err
	}

	if result.Record != nil && photoPath != "" {
		rec := result.Record.WithPhoto(photoPath)
		result.Record = &rec
	}

	log.Info().
		Str("processor", result.Processor).
		Bool("complete", result.Complete()).
		Strs("missing", result.Diagnostics.MissingFields).
		Int64("duration_ms", result.ProcessingTimeMs).
		Msg("passport recognition finished")

	s.publish(ctx, log, messaging.EventPassportRecognized, messaging.PassportRecognizedEvent{
		JobID:            jobID,
		UserID:           userID,
		Processor:        result.Processor,
		Complete:         result.Complete(),
		RecognizedFields: result.Diagnostics.RecognizedFields,
		MissingFields:    result.Diagnostics.MissingFields,
		ProcessingTimeMs: result.ProcessingTimeMs,
	})
	return result, nil
}

// ParseManual parses typed passport data synchronously
func (s *Service) ParseManual(ctx context.Context, userID, text string) (*domain.Result, error) {
	log := s.log.WithUserID(userID)
	result, err := s.run(ctx, log, domain.SourceManual, domain.Input{Text: text})
	if err != nil {
		log.Debug().Err(err).Msg("manual passport entry rejected")
		return nil, err
	}
	return result, nil
}

// GetJob returns a job owned by userID
func (s *Service) GetJob(jobID, userID string) (*domain.Job, error) {
	job := s.storage.GetJob(jobID)
	if job == nil || (userID != "" && job.UserID != userID) {
		return nil, errors.NotFound("job")
	}
	return job, nil
}

// run tries processors in order. The first complete result wins; otherwise
// the partial result with the most recognized fields is returned. If every
// processor fails, the last error is returned.
func (s *Service) run(ctx context.Context, log *logger.Logger, source domain.SourceType, in domain.Input) (*domain.Result, error) {
	processors := s.registry.FindProcessors(source)
	if len(processors) == 0 {
		return nil, errors.Internal("no processor available for source " + string(source))
	}

	var best *domain.Result
	var lastErr error
	for _, proc := range processors {
		result, err := proc.Process(ctx, in)
		if err != nil {
			lastErr = err
			log.Debug().Err(err).Str("processor", proc.Name()).Msg("processor failed, trying next")
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if result.Complete() {
			return result, nil
		}
		if best == nil || result.RecognizedCount() > best.RecognizedCount() {
			best = result
		}
	}

	if best != nil {
		return best, nil
	}
	return nil, lastErr
}

func (s *Service) publish(ctx context.Context, log *logger.Logger, eventType string, data interface{}) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), eventType, data); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

func checkImage(image []byte) error {
	if len(image) == 0 {
		return errors.BadRequest("image is empty")
	}
	switch http.DetectContentType(image) {
	case "image/jpeg", "image/png":
		return nil
	default:
		return errors.BadRequest("file must be a JPEG or PNG image")
	}
}

func errorInfo(err error) (code, message string) {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Message
	}
	return "INTERNAL_ERROR", err.Error()
}
