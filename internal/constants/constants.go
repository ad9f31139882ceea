// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Face matching constants
const (
	// DefaultAcceptanceThreshold is the distance below which the best gallery
	// match is accepted. The comparison is strict: a distance equal to the
	// threshold is rejected.
	DefaultAcceptanceThreshold = 0.55

	// DefaultComparatorTimeout bounds a single comparator call (liveness or one
	// probe/reference distance).
	DefaultComparatorTimeout = 30 * time.Second

	// DefaultComparatorModel is the recognition model requested from the face service
	DefaultComparatorModel = "Facenet"

	// DefaultComparatorDetector is the face detector backend requested from the face service
	DefaultComparatorDetector = "opencv"

	// DefaultComparatorMetric is the distance metric requested from the face service
	DefaultComparatorMetric = "cosine"
)

// Gallery constants
const (
	// GallerySlotPrefix and GallerySlotExt form slot file names: foto1.jpg, foto2.jpg, ...
	GallerySlotPrefix = "foto"
	GallerySlotExt    = ".jpg"

	// GalleryJPEGQuality is the JPEG quality used when normalizing stored images
	GalleryJPEGQuality = 95

	// MaxImageSize is the maximum dimension (width or height) of a stored gallery image
	MaxImageSize = 1920

	// MaxImagePixels caps the width*height of an uploaded image. Headers
	// declaring more are rejected before any pixel buffer is allocated.
	MaxImagePixels = 50_000_000
)

// Ledger constants
const (
	// DefaultMaxOpenConns is the default ledger connection pool size
	DefaultMaxOpenConns = 25

	// DefaultMaxIdleConns is the default number of idle ledger connections
	DefaultMaxIdleConns = 5
)
