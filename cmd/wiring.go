package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/comparator"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/logging"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

// openLedger connects to the ledger database and applies pending migrations.
func openLedger(ctx context.Context, cfg *config.Config) (*ledger.SQLLedger, error) {
	l, err := ledger.Open(ctx, cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	version, err := l.Migrate(ctx)
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}
	logging.From(ctx).WithField("driver", l.Driver()).WithField("version", version).Info("ledger ready")
	return l, nil
}

// newComparator builds the DeepFace client from config.
func newComparator(cfg *config.Config) *comparator.DeepFaceClient {
	return comparator.NewDeepFaceClient(cfg.Comparator.URL,
		comparator.WithModel(cfg.Comparator.Model),
		comparator.WithDetector(cfg.Comparator.Detector),
		comparator.WithMetric(cfg.Comparator.Metric),
		comparator.WithAntiSpoofing(cfg.Comparator.AntiSpoofing),
	)
}

// buildService wires gallery, comparator, match engine and ledger. The
// returned ledger must be closed by the caller.
func buildService(ctx context.Context, cfg *config.Config) (*attendance.Service, *ledger.SQLLedger, error) {
	store, err := gallery.New(ctx, cfg.Gallery)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open gallery: %w", err)
	}

	cmp := newComparator(cfg)
	logging.From(ctx).WithField("url", cfg.Comparator.URL).WithField("model", cmp.Model()).Info("face comparator configured")

	engine := matcher.New(store, cmp, matcher.Options{
		Threshold:   cfg.Matcher.Threshold,
		CallTimeout: cfg.Matcher.CallTimeout,
		TempDir:     cfg.Matcher.TempDir,
	})

	l, err := openLedger(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	return attendance.NewService(store, engine, l), l, nil
}
