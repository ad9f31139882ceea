package gallery

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/config"
)

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.GalleryConfig) (Store, error) {
	naming, err := ParseNaming(cfg.Naming)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.GalleryBackendFS, "":
		return NewFSStore(cfg.Dir, naming, cfg.MaxImageSize)
	case config.GalleryBackendS3:
		client, err := NewS3Client(ctx, S3Options{
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix, naming, cfg.MaxImageSize)
	}
	return nil, fmt.Errorf("unknown gallery backend %q", cfg.Backend)
}
