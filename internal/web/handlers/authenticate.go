package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/logging"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

type authenticateResponse struct {
	Email     string    `json:"email"`
	ClassName string    `json:"class_name"`
	Distance  float64   `json:"distance"`
	Timestamp time.Time `json:"timestamp"`
}

// Authenticate handles POST /authenticate with fields image, email and class.
// Recognition-negative outcomes are 200 responses with an error message.
func (h *AttendanceHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	if !h.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		h.respondMessage(w, r, http.StatusBadRequest, msgNoFaceFile)
		return
	}
	email := r.PostFormValue("email")
	if strings.TrimSpace(email) == "" {
		h.respondMessage(w, r, http.StatusBadRequest, msgNoEmail)
		return
	}
	class := r.PostFormValue("class")
	if strings.TrimSpace(class) == "" {
		h.respondMessage(w, r, http.StatusBadRequest, msgNoClass)
		return
	}

	probe, err := decodeUpload(files[0])
	if err != nil {
		logging.From(r.Context()).WithError(err).WithField("email", sanitizeForLog(email)).Info("rejected probe")
		h.respondMessage(w, r, http.StatusBadRequest, msgUndecodable)
		return
	}

	outcome, rec, err := h.svc.Authenticate(r.Context(), probe, email, class)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	switch outcome.Status {
	case matcher.StatusAccepted:
		respondJSON(w, http.StatusOK, authenticateResponse{
			Email:     rec.Email,
			ClassName: rec.ClassName,
			Distance:  outcome.Distance,
			Timestamp: rec.Timestamp,
		})
	case matcher.StatusNotFound:
		h.respondMessage(w, r, http.StatusOK, msgUserNotExist)
	case matcher.StatusSpoofDetected:
		h.respondMessage(w, r, http.StatusOK, msgFaceNotReal)
	default:
		h.respondMessage(w, r, http.StatusOK, msgUnknownUser)
	}
}
