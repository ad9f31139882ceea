package handlers

import (
	"context"
	"image"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

// Service is the part of attendance.Service the handlers use.
type Service interface {
	Register(ctx context.Context, email string, images []image.Image) (attendance.Registration, error)
	Authenticate(ctx context.Context, probe image.Image, email, class string) (matcher.Outcome, *ledger.Record, error)
	History(ctx context.Context) ([]ledger.Record, error)
	Status(ctx context.Context, email string) (attendance.GalleryStatus, error)
}

// AttendanceHandler serves registration, authentication and history.
type AttendanceHandler struct {
	svc           Service
	messages      *Messages
	maxUploadSize int64
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(cfg *config.Config, svc Service, messages *Messages) *AttendanceHandler {
	maxUploadSize := cfg.Server.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.MaxUploadSize
	}
	return &AttendanceHandler{
		svc:           svc,
		messages:      messages,
		maxUploadSize: maxUploadSize,
	}
}
