package handler

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/pravodoc/pravodoc-backend/internal/contract/service"
	"github.com/pravodoc/pravodoc-backend/internal/dates"
	passport "github.com/pravodoc/pravodoc-backend/internal/passport/domain"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
	"github.com/pravodoc/pravodoc-backend/pkg/httputil"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
)

// Content types of the downloadable documents
var contentTypes = map[string]string{
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"pdf":  "application/pdf",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Handler handles HTTP requests for contracts
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler creates a new contract handler
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: svc, log: log}
}

// Routes mounts the contract endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Post("/contracts", h.Generate)
	r.Get("/contracts/last", h.Last)
	r.Get("/contracts/last/{format}", h.Download)
}

// PassportInput is the client's passport as entered by an operator
type PassportInput struct {
	FullName   string `json:"full_name" validate:"required"`
	Series     string `json:"series" validate:"required,len=4,numeric"`
	Number     string `json:"number" validate:"required,len=6,numeric"`
	IssuedBy   string `json:"issued_by" validate:"required"`
	IssuedDate string `json:"issued_date" validate:"required"`
}

// GenerateRequest is the body of POST /contracts
type GenerateRequest struct {
	Passport         PassportInput `json:"passport"`
	TotalAmount      int64         `json:"total_amount" validate:"required,gt=0"`
	FirstPaymentDate string        `json:"first_payment_date" validate:"required"`
}

// Generate handles POST /contracts
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	issued, err := dates.ParseDayFirst(req.Passport.IssuedDate)
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.Validation(map[string]string{"passport.issued_date": err.Error()}))
		return
	}
	firstPayment, err := dates.ParseDayFirst(req.FirstPaymentDate)
	if err != nil {
		httputil.ErrorLocalized(w, r, errors.Validation(map[string]string{"first_payment_date": err.Error()}))
		return
	}

	rec := passport.Record{
		FullName:   req.Passport.FullName,
		Series:     req.Passport.Series,
		Number:     req.Passport.Number,
		IssuedBy:   req.Passport.IssuedBy,
		IssuedDate: issued,
	}

	entry, err := h.service.Generate(r.Context(), httputil.GetUserID(r.Context()), rec, req.TotalAmount, firstPayment)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.Created(w, entry)
}

// Last handles GET /contracts/last
func (h *Handler) Last(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.LastContract(r.Context(), httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entry)
}

// Download handles GET /contracts/last/{format}
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	contentType, ok := contentTypes[format]
	if !ok {
		httputil.ErrorLocalized(w, r, errors.BadRequest("unsupported document format"))
		return
	}

	entry, err := h.service.LastContract(r.Context(), httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	var path string
	switch format {
	case "docx":
		path = entry.DocxPath
	case "pdf":
		path = entry.PDFPath
	case "xlsx":
		path = entry.XlsxPath
	}
	if path == "" {
		httputil.ErrorLocalized(w, r, errors.NotFound("document"))
		return
	}

	httputil.File(w, r, path, filepath.Base(path), contentType)
}
