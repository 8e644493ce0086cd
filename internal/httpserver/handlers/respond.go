package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Error types reported in the failure envelope for non-pipeline errors.
const (
	TypeBadRequest       = "BadRequest"
	TypeValidation       = "ValidationError"
	TypeNotFound         = "NotFound"
	TypeCategoryNotEmpty = "CategoryNotEmpty"
	TypeConflict         = "Conflict"
	TypeInternal         = "InternalError"
)

type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Scraped   any    `json:"scraped,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func fail(w http.ResponseWriter, status int, errorType, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg, ErrorType: errorType})
}

// storeError maps catalog errors to status codes. Unexpected errors are
// logged and reported generically.
func storeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fail(w, http.StatusNotFound, TypeNotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		fail(w, http.StatusBadRequest, TypeValidation, err.Error())
	case errors.Is(err, domain.ErrCategoryNotEmpty):
		fail(w, http.StatusConflict, TypeCategoryNotEmpty, err.Error())
	case errors.Is(err, domain.ErrConflict):
		fail(w, http.StatusConflict, TypeConflict, err.Error())
	default:
		log.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err))
		fail(w, http.StatusInternalServerError, TypeInternal, "internal error")
	}
}

// decode reads a single JSON object into dst, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}
