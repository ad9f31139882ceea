package gallery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// FSStore keeps each gallery in its own directory under root.
type FSStore struct {
	root    string
	naming  Naming
	maxSize int
	locks   *identityLocks
}

// NewFSStore creates the root directory if needed.
func NewFSStore(root string, naming Naming, maxSize int) (*FSStore, error) {
	if root == "" {
		return nil, errors.New("gallery root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create gallery root: %w", err)
	}
	if maxSize <= 0 {
		maxSize = constants.MaxImageSize
	}
	return &FSStore{
		root:    root,
		naming:  naming,
		maxSize: maxSize,
		locks:   newIdentityLocks(),
	}, nil
}

// Root returns the gallery root directory.
func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) dir(identity string) string {
	return filepath.Join(s.root, identity)
}

// fileImage is a gallery image backed by a file on disk.
type fileImage struct {
	name string
	path string
}

func (f fileImage) Name() string { return f.name }

func (f fileImage) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.path)
}

// Put writes each image to a temp file in the identity directory and renames
// it into its slot, so readers never observe a partial image.
func (s *FSStore) Put(ctx context.Context, identity string, images []image.Image) ([]string, error) {
	if err := ValidateIdentity(identity); err != nil {
		return nil, err
	}
	encoded, err := encodeAll(images, s.maxSize)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(identity)
	defer unlock()

	dir := s.dir(identity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create gallery for %s: %w", identity, err)
	}

	existing, err := s.names(identity)
	if err != nil {
		return nil, err
	}

	slots := allocateSlots(existing, len(encoded), s.naming)
	for i, data := range encoded {
		if err := ctx.Err(); err != nil {
			return slots[:i], err
		}
		if err := writeAtomic(dir, slots[i], data); err != nil {
			return slots[:i], fmt.Errorf("failed to store %s/%s: %w", identity, slots[i], err)
		}
	}
	return slots, nil
}

func writeAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, name))
}

// names returns the image file names in the identity directory, sorted.
func (s *FSStore) names(identity string) ([]string, error) {
	entries, err := os.ReadDir(s.dir(identity))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read gallery %s: %w", identity, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsImageName(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sortNames(names)
	return names, nil
}

func (s *FSStore) List(_ context.Context, identity string) ([]Image, error) {
	if err := ValidateIdentity(identity); err != nil {
		return nil, err
	}
	names, err := s.names(identity)
	if err != nil {
		return nil, err
	}

	images := make([]Image, 0, len(names))
	for _, name := range names {
		images = append(images, fileImage{name: name, path: filepath.Join(s.dir(identity), name)})
	}
	return images, nil
}

func (s *FSStore) Exists(_ context.Context, identity string) (bool, error) {
	if err := ValidateIdentity(identity); err != nil {
		return false, err
	}
	info, err := os.Stat(s.dir(identity))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat gallery %s: %w", identity, err)
	}
	return info.IsDir(), nil
}

func (s *FSStore) Count(_ context.Context, identity string) (int, error) {
	if err := ValidateIdentity(identity); err != nil {
		return 0, err
	}
	names, err := s.names(identity)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}
