package matcher

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Probe is an uploaded face staged as a PNG file for the duration of one
// authentication. It satisfies comparator.Source.
type Probe struct {
	path string
	once sync.Once
	err  error
}

// StageProbe encodes img as PNG into a uniquely named file in dir. An empty
// dir means os.TempDir(). The caller must Close the probe to remove the file.
func StageProbe(img image.Image, dir string) (*Probe, error) {
	if img == nil {
		return nil, errors.New("probe image is nil")
	}

	f, err := os.CreateTemp(dir, "probe-"+uuid.NewString()+"-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create probe file: %w", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to encode probe: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write probe: %w", err)
	}

	return &Probe{path: f.Name()}, nil
}

func (p *Probe) Name() string {
	return filepath.Base(p.path)
}

// Path returns the location of the staged file.
func (p *Probe) Path() string {
	return p.path
}

func (p *Probe) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(p.path)
}

// Close removes the staged file. It is safe to call more than once.
func (p *Probe) Close() error {
	p.once.Do(func() {
		if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			p.err = fmt.Errorf("failed to remove probe: %w", err)
		}
	})
	return p.err
}
