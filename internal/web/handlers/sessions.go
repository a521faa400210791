package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kozaktomas/photo-framer/internal/constants"
	"github.com/kozaktomas/photo-framer/internal/editor"
	"github.com/kozaktomas/photo-framer/internal/imagesource"
	"github.com/kozaktomas/photo-framer/internal/web/middleware"
	"github.com/kozaktomas/photo-framer/internal/workflow"
	"github.com/sirupsen/logrus"
)

// SessionsHandler handles the photo editing session endpoints.
type SessionsHandler struct {
	manager   *workflow.Manager
	validator *validator.Validate
	log       logrus.FieldLogger
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(manager *workflow.Manager, validate *validator.Validate, log logrus.FieldLogger) *SessionsHandler {
	return &SessionsHandler{
		manager:   manager,
		validator: validate,
		log:       log,
	}
}

// Create opens the editor modal with a fresh session.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	session := h.manager.Create()
	respondJSON(w, http.StatusCreated, session.Snapshot())
}

// Get returns the session snapshot.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, session.Snapshot())
}

// Delete closes the modal and drops the session.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if err := h.manager.Close(session.ID); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload accepts a multipart "file" field and evaluates the new image.
func (h *SessionsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	img, err := imagesource.Decode(data, header.Header.Get("Content-Type"))
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"session": session.ID,
			"file":    sanitizeForLog(header.Filename),
		}).WithError(err).Warn("Rejected upload")
		respondError(w, statusForError(err), err.Error())
		return
	}

	snap, err := h.manager.SelectImage(r.Context(), session.ID, img, header.Filename)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// UpdateEditor stores new zoom and position values and schedules a re-evaluation.
func (h *SessionsHandler) UpdateEditor(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	var req editor.State
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	snap, err := h.manager.Adjust(session.ID, req)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, snap)
}

// Save stores the framed photo and evaluates it immediately.
func (h *SessionsHandler) Save(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	snap, err := h.manager.Save(r.Context(), session.ID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Frame returns the current framed view as PNG. With ?download=1 it is sent as an attachment.
func (h *SessionsHandler) Frame(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())

	img, err := h.manager.Frame(session.ID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	data, err := imagesource.EncodePNG(img)
	if err != nil {
		h.log.WithError(err).Error("Encoding frame failed")
		respondError(w, http.StatusInternalServerError, "failed to encode frame")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Query().Get("download") != "" {
		name := imagesource.DownloadName(session.Snapshot().SourceName)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Events streams session snapshots over SSE.
func (h *SessionsHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSessionEvents(w, r)
}

// validationMessage turns validator errors into a single client-facing line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errInvalidRequestBody
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param()))
	}
	return "invalid editor state: " + strings.Join(parts, "; ")
}
