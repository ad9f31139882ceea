// Package matcher decides whether a probe face belongs to a claimed identity
// by scanning that identity's gallery for the closest reference image.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-attendance/internal/comparator"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/logging"
)

// ErrStorage wraps gallery and probe staging failures.
var ErrStorage = errors.New("storage failure")

// Status is the terminal result of an authentication.
type Status string

const (
	StatusAccepted      Status = "accepted"
	StatusRejected      Status = "rejected"
	StatusNotFound      Status = "not_found"
	StatusSpoofDetected Status = "spoof_detected"
)

// Outcome describes one authentication. Distance is +Inf when no reference
// could be compared.
type Outcome struct {
	Status   Status
	Identity string
	Session  string
	Distance float64
	Compared int
	Skipped  int
}

// Accepted reports whether the probe matched the claimed identity.
func (o Outcome) Accepted() bool {
	return o.Status == StatusAccepted
}

// Gallery is the read side of the gallery store used by the engine.
type Gallery interface {
	Exists(ctx context.Context, identity string) (bool, error)
	List(ctx context.Context, identity string) ([]gallery.Image, error)
}

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	Threshold   float64       // accept when the best distance is strictly below this
	CallTimeout time.Duration // upper bound for every comparator call
	TempDir     string        // where probes are staged; empty means os.TempDir()
}

// Engine runs the liveness gate and best-match scan.
type Engine struct {
	gallery     Gallery
	comparator  comparator.Comparator
	threshold   float64
	callTimeout time.Duration
	tempDir     string
}

// New creates an engine.
func New(g Gallery, c comparator.Comparator, opts Options) *Engine {
	if opts.Threshold <= 0 {
		opts.Threshold = constants.DefaultAcceptanceThreshold
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = constants.DefaultComparatorTimeout
	}
	return &Engine{
		gallery:     g,
		comparator:  c,
		threshold:   opts.Threshold,
		callTimeout: opts.CallTimeout,
		tempDir:     opts.TempDir,
	}
}

// Threshold returns the acceptance threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Authenticate matches probe against the gallery of identity. The returned
// error is non-nil only for storage failures and context cancellation;
// comparison failures are skipped and never abort the scan.
func (e *Engine) Authenticate(ctx context.Context, probe image.Image, identity, session string) (Outcome, error) {
	log := logging.From(ctx).WithFields(logrus.Fields{
		"email": identity,
		"class": session,
	})
	outcome := Outcome{
		Identity: identity,
		Session:  session,
		Distance: math.Inf(1),
	}

	exists, err := e.gallery.Exists(ctx, identity)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: checking gallery: %w", ErrStorage, err)
	}
	if !exists {
		outcome.Status = StatusNotFound
		log.Info("authentication for unknown identity")
		return outcome, nil
	}

	staged, err := StageProbe(probe, e.tempDir)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	defer func() {
		if err := staged.Close(); err != nil {
			log.WithError(err).Warn("probe cleanup failed")
		}
	}()

	live, err := e.liveness(ctx, staged)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		// No face in the probe or an unreachable service; nothing can be compared.
		log.WithError(err).Warn("liveness check failed")
		outcome.Status = StatusRejected
		return outcome, nil
	}
	if !live {
		outcome.Status = StatusSpoofDetected
		log.Info("spoof detected")
		return outcome, nil
	}

	refs, err := e.gallery.List(ctx, identity)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: listing gallery: %w", ErrStorage, err)
	}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		d, err := e.distance(ctx, staged, ref)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			outcome.Skipped++
			log.WithError(err).WithField("reference", ref.Name()).Warn("skipping reference image")
			continue
		}

		outcome.Compared++
		if d < outcome.Distance {
			outcome.Distance = d
		}
	}

	if outcome.Distance < e.threshold {
		outcome.Status = StatusAccepted
	} else {
		outcome.Status = StatusRejected
	}

	entry := log.WithFields(logrus.Fields{
		"status":   outcome.Status,
		"compared": outcome.Compared,
		"skipped":  outcome.Skipped,
	})
	if !math.IsInf(outcome.Distance, 0) {
		entry = entry.WithField("distance", outcome.Distance)
	}
	entry.Info("authentication finished")

	return outcome, nil
}

// liveness reports whether every face region in the probe is real.
func (e *Engine) liveness(ctx context.Context, probe comparator.Source) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	regions, err := e.comparator.Liveness(callCtx, probe)
	if err != nil {
		return false, err
	}
	return comparator.AllReal(regions), nil
}

// distance compares probe with one reference under the per-call timeout.
func (e *Engine) distance(ctx context.Context, probe, ref comparator.Source) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	start := time.Now()
	d, err := e.comparator.Distance(callCtx, probe, ref)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, fmt.Errorf("invalid distance %v", d)
	}

	logging.From(ctx).WithFields(logrus.Fields{
		"reference": ref.Name(),
		"distance":  d,
		"took":      time.Since(start),
	}).Debug("compared reference image")
	return d, nil
}
