// Package attendance implements the register, authenticate and history use
// cases shared by the HTTP server and the CLI.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/logging"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

// Column limits of attendance_records.
const (
	MaxEmailLength = 254
	MaxClassLength = 100
)

// ErrValidation is wrapped by every input error.
var ErrValidation = errors.New("invalid input")

var (
	ErrMissingImage     = fmt.Errorf("%w: no face file", ErrValidation)
	ErrMissingEmail     = fmt.Errorf("%w: no email", ErrValidation)
	ErrMissingClass     = fmt.Errorf("%w: no class", ErrValidation)
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrUndecodableImage = fmt.Errorf("%w: image could not be decoded", ErrValidation)
	ErrFieldTooLong     = fmt.Errorf("%w: field too long", ErrValidation)
)

// ErrStorage is wrapped by gallery, probe staging and ledger failures.
var ErrStorage = matcher.ErrStorage

// Authenticator matches a probe against a claimed identity.
type Authenticator interface {
	Authenticate(ctx context.Context, probe image.Image, identity, session string) (matcher.Outcome, error)
}

// Registration is the result of Register.
type Registration struct {
	Email  string
	Images []string
}

// GalleryStatus describes the gallery of one identity.
type GalleryStatus struct {
	Email      string
	Registered bool
	Images     int
}

// Service wires the gallery, the match engine and the ledger together.
type Service struct {
	gallery gallery.Store
	engine  Authenticator
	ledger  ledger.Ledger
}

// NewService creates a service.
func NewService(store gallery.Store, engine Authenticator, l ledger.Ledger) *Service {
	return &Service{
		gallery: store,
		engine:  engine,
		ledger:  l,
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validateEmail(email string) error {
	if blank(email) {
		return ErrMissingEmail
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return fmt.Errorf("%w: email exceeds %d characters", ErrFieldTooLong, MaxEmailLength)
	}
	if err := gallery.ValidateIdentity(email); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}
	return nil
}

// Register stores images in the gallery of email.
func (s *Service) Register(ctx context.Context, email string, images []image.Image) (Registration, error) {
	if err := validateEmail(email); err != nil {
		return Registration{}, err
	}
	if len(images) == 0 {
		return Registration{}, ErrMissingImage
	}

	slots, err := s.gallery.Put(ctx, email, images)
	if err != nil {
		switch {
		case errors.Is(err, gallery.ErrInvalidIdentity):
			return Registration{}, fmt.Errorf("%w: %w", ErrInvalidEmail, err)
		case errors.Is(err, gallery.ErrNoImages):
			return Registration{}, ErrMissingImage
		case errors.Is(err, gallery.ErrUndecodable):
			return Registration{}, fmt.Errorf("%w: %w", ErrUndecodableImage, err)
		}
		return Registration{}, fmt.Errorf("%w: storing images: %w", ErrStorage, err)
	}

	logging.From(ctx).WithField("email", email).WithField("images", len(slots)).Info("registered images")
	return Registration{Email: email, Images: slots}, nil
}

// Authenticate runs the match engine and records attendance when the probe is
// accepted. The record is nil for every other outcome.
func (s *Service) Authenticate(ctx context.Context, probe image.Image, email, class string) (matcher.Outcome, *ledger.Record, error) {
	if probe == nil {
		return matcher.Outcome{}, nil, ErrMissingImage
	}
	if err := validateEmail(email); err != nil {
		return matcher.Outcome{}, nil, err
	}
	if blank(class) {
		return matcher.Outcome{}, nil, ErrMissingClass
	}
	if utf8.RuneCountInString(class) > MaxClassLength {
		return matcher.Outcome{}, nil, fmt.Errorf("%w: class exceeds %d characters", ErrFieldTooLong, MaxClassLength)
	}

	outcome, err := s.engine.Authenticate(ctx, probe, email, class)
	if err != nil {
		return matcher.Outcome{}, nil, err
	}
	if !outcome.Accepted() {
		return outcome, nil, nil
	}

	rec, err := s.ledger.Append(ctx, email, class)
	if err != nil {
		return outcome, nil, fmt.Errorf("%w: recording attendance: %w", ErrStorage, err)
	}
	return outcome, &rec, nil
}

// History returns every attendance record in insertion order.
func (s *Service) History(ctx context.Context) ([]ledger.Record, error) {
	records, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading history: %w", ErrStorage, err)
	}
	return records, nil
}

// Status reports whether email has a gallery and how many images it holds.
func (s *Service) Status(ctx context.Context, email string) (GalleryStatus, error) {
	if err := validateEmail(email); err != nil {
		return GalleryStatus{}, err
	}

	exists, err := s.gallery.Exists(ctx, email)
	if err != nil {
		return GalleryStatus{}, fmt.Errorf("%w: checking gallery: %w", ErrStorage, err)
	}
	status := GalleryStatus{Email: email, Registered: exists}
	if !exists {
		return status, nil
	}

	status.Images, err = s.gallery.Count(ctx, email)
	if err != nil {
		return GalleryStatus{}, fmt.Errorf("%w: counting images: %w", ErrStorage, err)
	}
	return status, nil
}
