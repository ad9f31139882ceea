package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

type userStatusResponse struct {
	Email      string `json:"email"`
	Registered bool   `json:"registered"`
	Images     int    `json:"images"`
}

// UserStatus handles GET /users/{email}.
func (h *AttendanceHandler) UserStatus(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		h.respondMessage(w, r, http.StatusBadRequest, msgInvalidEmail)
		return
	}

	status, err := h.svc.Status(r.Context(), email)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, userStatusResponse{
		Email:      status.Email,
		Registered: status.Registered,
		Images:     status.Images,
	})
}
