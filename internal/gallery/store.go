// Package gallery stores the reference face images registered for each identity.
//
// Two backends are provided: a filesystem tree with one directory per identity
// and an S3-compatible bucket with one key prefix per identity. Both share the
// same slot naming policy (foto1.jpg, foto2.jpg, ...) and normalize every image
// to JPEG before storing it.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
)

var (
	// ErrInvalidIdentity is returned for identities that are empty or could escape the gallery root.
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrNoImages is returned by Put when called without images.
	ErrNoImages = errors.New("no images")
)

// Image is a stored reference image. It satisfies comparator.Source.
type Image interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Store persists reference images per identity.
type Store interface {
	// Put normalizes and stores images for identity, creating the gallery if
	// needed, and returns the slot names written in order.
	Put(ctx context.Context, identity string, images []image.Image) ([]string, error)
	// List returns the gallery of identity in slot order. An unknown identity
	// yields an empty slice, not an error.
	List(ctx context.Context, identity string) ([]Image, error)
	// Exists reports whether a gallery has been created for identity.
	Exists(ctx context.Context, identity string) (bool, error)
	// Count returns the number of stored images for identity.
	Count(ctx context.Context, identity string) (int, error)
}

// ValidateIdentity rejects identities that cannot be used as a directory name
// or key prefix.
func ValidateIdentity(identity string) error {
	switch {
	case identity == "":
		return fmt.Errorf("%w: empty", ErrInvalidIdentity)
	case strings.ContainsAny(identity, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidIdentity, identity)
	case identity == "." || identity == "..":
		return fmt.Errorf("%w: %q is a relative path element", ErrInvalidIdentity, identity)
	}
	return nil
}
