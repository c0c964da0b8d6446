package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pravodoc/pravodoc-backend/internal/dialogue"
	dochandler "github.com/pravodoc/pravodoc-backend/internal/docprocessing/handler"
	"github.com/pravodoc/pravodoc-backend/pkg/httputil"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
)

const defaultMaxPhotoSize = 20 << 20 // 20MB

// Handler exposes the dialogue over HTTP
type Handler struct {
	engine       *dialogue.Engine
	maxPhotoSize int64
	log          *logger.Logger
}

// NewHandler creates a new chat handler
func NewHandler(engine *dialogue.Engine, maxPhotoSize int64, log *logger.Logger) *Handler {
	if maxPhotoSize <= 0 {
		maxPhotoSize = defaultMaxPhotoSize
	}
	return &Handler{engine: engine, maxPhotoSize: maxPhotoSize, log: log}
}

// Routes mounts the chat endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Post("/chat/messages", h.Message)
	r.Post("/chat/photo", h.Photo)
}

// MessageRequest carries either typed text or a pressed button
type MessageRequest struct {
	Text   string `json:"text" validate:"required_without=Action"`
	Action string `json:"action" validate:"required_without=Text"`
}

// Message handles POST /chat/messages
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	userID := httputil.GetUserID(r.Context())
	var (
		reply *dialogue.Reply
		err   error
	)
	if req.Action != "" {
		reply, err = h.engine.HandleAction(r.Context(), userID, req.Action)
	} else {
		reply, err = h.engine.HandleText(r.Context(), userID, req.Text)
	}
	if err != nil {
		h.log.WithUserID(userID).Error().Err(err).Msg("chat message failed")
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, reply)
}

// Photo handles POST /chat/photo
// Accepts a multipart form with the passport photo in "file".
func (h *Handler) Photo(w http.ResponseWriter, r *http.Request) {
	image, err := dochandler.ReadUpload(w, r, h.maxPhotoSize)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	userID := httputil.GetUserID(r.Context())
	reply, err := h.engine.HandlePhoto(r.Context(), userID, image)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, reply)
}
