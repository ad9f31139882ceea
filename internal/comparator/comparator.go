// Package comparator defines the face comparison capability the match engine
// depends on and provides an HTTP client for a DeepFace-style face service.
package comparator

import (
	"context"
	"io"
)

// Source is an image the comparator can read, such as a staged probe or a
// gallery reference.
type Source interface {
	// Name identifies the image in logs and error messages
	Name() string
	// Open returns a reader over the encoded image bytes. Remote sources bound
	// the fetch by ctx.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Region is one face region found by the liveness check.
type Region struct {
	X, Y, W, H     int
	Confidence     float64
	IsReal         bool
	AntiSpoofScore float64
}

// Comparator computes face distances and liveness verdicts.
type Comparator interface {
	// Liveness detects faces in img and reports whether each one is a live capture
	Liveness(ctx context.Context, img Source) ([]Region, error)
	// Distance returns the dissimilarity between the faces in a and b (lower is more similar)
	Distance(ctx context.Context, a, b Source) (float64, error)
}

// AllReal reports whether every region was judged live. An empty slice is
// considered live: no region was flagged as a spoof.
func AllReal(regions []Region) bool {
	for _, r := range regions {
		if !r.IsReal {
			return false
		}
	}
	return true
}
