package handlers

import (
	"image"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/logging"
)

type registerResponse struct {
	Result string   `json:"result"`
	Email  string   `json:"email"`
	Images []string `json:"images"`
}

// Register handles POST /register with fields email and images (one or more files).
func (h *AttendanceHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.parseUpload(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	email := r.PostFormValue("email")
	if strings.TrimSpace(email) == "" {
		h.respondMessage(w, r, http.StatusBadRequest, msgNoEmail)
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		h.respondMessage(w, r, http.StatusBadRequest, msgNoImages)
		return
	}

	images := make([]image.Image, 0, len(files))
	for _, fh := range files {
		img, err := decodeUpload(fh)
		if err != nil {
			logging.From(r.Context()).WithError(err).WithField("email", sanitizeForLog(email)).Info("rejected upload")
			h.respondMessage(w, r, http.StatusBadRequest, msgUndecodable)
			return
		}
		images = append(images, img)
	}

	reg, err := h.svc.Register(r.Context(), email, images)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, registerResponse{
		Result: "ok",
		Email:  reg.Email,
		Images: reg.Images,
	})
}
