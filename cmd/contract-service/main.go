package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	contracthandler "github.com/pravodoc/pravodoc-backend/internal/contract/handler"
	"github.com/pravodoc/pravodoc-backend/internal/contract/render"
	"github.com/pravodoc/pravodoc-backend/internal/contract/repository"
	contractservice "github.com/pravodoc/pravodoc-backend/internal/contract/service"
	"github.com/pravodoc/pravodoc-backend/internal/dialogue"
	chathandler "github.com/pravodoc/pravodoc-backend/internal/dialogue/handler"
	"github.com/pravodoc/pravodoc-backend/internal/dialogue/session"
	dochandler "github.com/pravodoc/pravodoc-backend/internal/docprocessing/handler"
	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/processor"
	docservice "github.com/pravodoc/pravodoc-backend/internal/docprocessing/service"
	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/storage"
	"github.com/pravodoc/pravodoc-backend/internal/nlp"
	"github.com/pravodoc/pravodoc-backend/internal/ocr"
	"github.com/pravodoc/pravodoc-backend/internal/ocr/tesseract"
	"github.com/pravodoc/pravodoc-backend/internal/passport/assembler"
	"github.com/pravodoc/pravodoc-backend/internal/passport/extract"
	"github.com/pravodoc/pravodoc-backend/pkg/auth"
	"github.com/pravodoc/pravodoc-backend/pkg/config"
	"github.com/pravodoc/pravodoc-backend/pkg/database"
	"github.com/pravodoc/pravodoc-backend/pkg/httputil"
	"github.com/pravodoc/pravodoc-backend/pkg/i18n"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
	"github.com/pravodoc/pravodoc-backend/pkg/messaging"
)

const serviceName = "contract-service"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment).SetLevel(cfg.Server.LogLevel)
	log.Info().Msg("starting Contract Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database when contracts are kept in SQL
	var db *database.DB
	if cfg.Storage.Backend == config.StorageSQL {
		db, err = database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := repository.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	counter, registry, err := repository.Open(&cfg.Storage, db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open contract repository")
	}

	// Connect to RabbitMQ
	var publisher contractservice.Publisher = messaging.Discard{Logger: log}
	var rmq *messaging.RabbitMQ
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(ctx, &cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		pub, err := messaging.NewPublisher(rmq, cfg.RabbitMQ.Exchange, serviceName, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		publisher = pub
	}

	// Passport recognition
	var names extract.NameRecognizer
	if cfg.NER.Enabled {
		names = nlp.NewClient(cfg.NER.URL, cfg.NER.Timeout, log.WithComponent("nlp"))
	}
	asm := assembler.New(names)

	engineFactory := tesseract.Factory(tesseract.Config{
		Languages:      cfg.OCR.Languages,
		PageSegMode:    cfg.OCR.PageSegMode,
		TessdataPrefix: cfg.OCR.TessdataPrefix,
	})
	ocrLog := ocr.WithLogger(log.WithComponent("ocr"))
	plainReader := ocr.NewReader(engineFactory, ocrLog)
	defer plainReader.Close()

	processors := []processor.Processor{}
	if cfg.OCR.Preprocess {
		enhancedReader := ocr.NewReader(engineFactory, ocrLog, ocr.WithPreprocess(cfg.OCR.MinWidth))
		defer enhancedReader.Close()
		processors = append(processors, processor.NewOCRProcessor("ocr_enhanced", enhancedReader, asm))
	}
	processors = append(processors,
		processor.NewOCRProcessor("ocr", plainReader, asm),
		processor.NewManualProcessor(),
	)

	jobs := storage.NewTempStorage(cfg.OCR.JobTTL)
	defer jobs.Close()

	photos, err := storage.NewPhotoArchive(cfg.Storage.PassportsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create passport photo archive")
	}

	passportService := docservice.NewService(
		processor.NewRegistry(processors...),
		jobs,
		publisher,
		log.WithComponent("passport"),
		docservice.WithPhotoArchive(photos),
		docservice.WithTimeout(cfg.OCR.Timeout),
	)
	passportHandler := dochandler.NewHandler(passportService, cfg.OCR.MaxUploadSize, log)

	// Contracts
	renderer := render.New(render.OptionsFromConfig(&cfg.Contract), log)
	contractService := contractservice.NewService(counter, registry, renderer, publisher, cfg.Storage.ContractsRoot, log)
	contractHandler := contracthandler.NewHandler(contractService, log)

	// Chat dialogue
	var sessions session.Store
	var redisClient *redis.Client
	if cfg.Chat.SessionBackend == config.SessionRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		sessions = session.NewRedisStore(redisClient, "pravodoc", cfg.Chat.SessionTTL)
	} else {
		sessions = session.NewMemoryStore(cfg.Chat.SessionTTL)
	}
	engine := dialogue.NewEngine(passportService, contractService, sessions, log)
	chatHandler := chathandler.NewHandler(engine, cfg.OCR.MaxUploadSize, log)

	tokens := auth.NewManager(&cfg.JWT)
	limiter := httputil.NewRateLimiter(cfg.Chat.RateLimit, cfg.Chat.RateBurst)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":  "healthy",
			"service": serviceName,
			"storage": cfg.Storage.Backend,
		}
		if db != nil {
			status["database"] = db.Health(r.Context())
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		if redisClient != nil {
			redisStatus := "healthy"
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				redisStatus = "unhealthy"
			}
			status["redis"] = redisStatus
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	// API routes (bearer token required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.Auth(tokens, log))
		r.Use(limiter.Middleware)

		passportHandler.Routes(r)
		contractHandler.Routes(r)
		chatHandler.Routes(r)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Str("storage", cfg.Storage.Backend).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
