package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/logging"
)

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondMessage sends an error response with the message for key translated
// according to the request's Accept-Language header.
func (h *AttendanceHandler) respondMessage(w http.ResponseWriter, r *http.Request, status int, key string) {
	respondError(w, status, h.messages.Lookup(r.Header.Get("Accept-Language"), key))
}

// validationMessages maps input errors to message keys, most specific first.
var validationMessages = []struct {
	err error
	key string
}{
	{attendance.ErrMissingImage, msgNoFaceFile},
	{attendance.ErrMissingEmail, msgNoEmail},
	{attendance.ErrMissingClass, msgNoClass},
	{attendance.ErrInvalidEmail, msgInvalidEmail},
	{attendance.ErrUndecodableImage, msgUndecodable},
	{attendance.ErrFieldTooLong, msgFieldTooLong},
}

// respondServiceError maps a service error to a status code and message:
// validation errors are 400, cancellations 503/504, and everything else is
// treated as a storage failure.
func (h *AttendanceHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.From(r.Context())

	if errors.Is(err, attendance.ErrValidation) {
		for _, vm := range validationMessages {
			if errors.Is(err, vm.err) {
				h.respondMessage(w, r, http.StatusBadRequest, vm.key)
				return
			}
		}
		h.respondMessage(w, r, http.StatusBadRequest, msgInvalidInput)
		return
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.WithError(err).Warn("request timed out")
		h.respondMessage(w, r, http.StatusGatewayTimeout, msgRequestCanceled)
	case errors.Is(err, context.Canceled):
		log.WithError(err).Warn("request cancelled")
		h.respondMessage(w, r, http.StatusServiceUnavailable, msgRequestCanceled)
	default:
		log.WithError(err).Error("storage failure")
		h.respondMessage(w, r, http.StatusInternalServerError, msgStorageFailure)
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// NotFound answers unknown routes with a JSON error.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "not found")
}

// MethodNotAllowed answers known routes requested with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "method not allowed")
}
