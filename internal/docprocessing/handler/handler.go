package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pravodoc/pravodoc-backend/internal/dates"
	"github.com/pravodoc/pravodoc-backend/internal/docprocessing/service"
	"github.com/pravodoc/pravodoc-backend/internal/schedule"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
	"github.com/pravodoc/pravodoc-backend/pkg/httputil"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
)

const defaultMaxUploadSize = 20 << 20 // 20MB

// Handler handles HTTP requests for passport recognition
type Handler struct {
	service       *service.Service
	maxUploadSize int64
	log           *logger.Logger
}

// NewHandler creates a new passport handler
func NewHandler(svc *service.Service, maxUploadSize int64, log *logger.Logger) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxUploadSize
	}
	return &Handler{
		service:       svc,
		maxUploadSize: maxUploadSize,
		log:           log,
	}
}

// Routes mounts the passport and schedule endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Post("/passports/recognize", h.Recognize)
	r.Get("/passports/jobs/{jobId}", h.GetJob)
	r.Post("/passports/manual", h.ParseManual)
	r.Post("/schedules", h.BuildSchedule)
}

// Recognize handles POST /passports/recognize
// Accepts a multipart form with the passport photo in "file".
func (h *Handler) Recognize(w http.ResponseWriter, r *http.Request) {
	image, err := ReadUpload(w, r, h.maxUploadSize)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	// image is zeroed by the service
	job, err := h.service.StartRecognition(r.Context(), httputil.GetUserID(r.Context()), image)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusAccepted, job)
}

// GetJob handles GET /passports/jobs/{jobId}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		httputil.ErrorLocalized(w, r, errors.BadRequest("missing jobId parameter"))
		return
	}

	job, err := h.service.GetJob(jobID, httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, job)
}

// ManualRequest is the body of POST /passports/manual
type ManualRequest struct {
	Text string `json:"text" validate:"required"`
}

// ParseManual handles POST /passports/manual
func (h *Handler) ParseManual(w http.ResponseWriter, r *http.Request) {
	var req ManualRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	result, err := h.service.ParseManual(r.Context(), httputil.GetUserID(r.Context()), req.Text)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// ScheduleRequest is the body of POST /schedules
type ScheduleRequest struct {
	StartDate   string `json:"start_date" validate:"required"`
	TotalAmount int64  `json:"total_amount" validate:"required,gt=0"`
}

// ScheduleResponse lists the installments of a schedule
type ScheduleResponse struct {
	TotalAmount int64              `json:"total_amount"`
	Payments    []schedule.Payment `json:"payments"`
}

// BuildSchedule handles POST /schedules
func (h *Handler) BuildSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	start, err := dates.ParseDayFirst(req.StartDate)
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.Validation(map[string]string{"start_date": err.Error()}))
		return
	}

	payments, err := schedule.Build(start, req.TotalAmount)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ScheduleResponse{TotalAmount: req.TotalAmount, Payments: payments})
}

// ReadUpload reads the "file" part of a multipart form into memory.
func ReadUpload(w http.ResponseWriter, r *http.Request, maxSize int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, errors.BadRequest("file too large or invalid multipart form")
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.BadRequest("missing file in request")
	}
	defer file.Close()

	// Read file into memory (never to a temp file)
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Internal("failed to read uploaded file")
	}
	return data, nil
}

