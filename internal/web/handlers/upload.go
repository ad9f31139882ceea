package handlers

import (
	"errors"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/logging"
)

// parseUpload parses a multipart body capped at maxUploadSize. On failure it
// writes the response and returns false. Callers must defer
// r.MultipartForm.RemoveAll() after a successful parse.
func (h *AttendanceHandler) parseUpload(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(constants.MultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondMessage(w, r, http.StatusRequestEntityTooLarge, msgUploadTooLarge)
			return false
		}
		logging.From(r.Context()).WithError(err).Debug("invalid multipart form")
		h.respondMessage(w, r, http.StatusBadRequest, msgInvalidForm)
		return false
	}
	return true
}

// decodeUpload reads one uploaded file as an image.
func decodeUpload(fh *multipart.FileHeader) (image.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer f.Close()

	img, err := gallery.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", fh.Filename, err)
	}
	return img, nil
}
