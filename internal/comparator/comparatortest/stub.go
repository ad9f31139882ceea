// Package comparatortest provides a scriptable Comparator for tests.
package comparatortest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/comparator"
)

// ErrNoFace is returned for references configured to fail.
var ErrNoFace = errors.New("face could not be detected")

// Stub is a Comparator whose answers are keyed by the reference image name.
// Distance looks up the name of its second argument.
type Stub struct {
	mu sync.Mutex

	// Distances maps reference name to the distance returned for it
	Distances map[string]float64
	// Failures maps reference name to the error returned for it
	Failures map[string]error
	// Delays maps reference name to how long Distance blocks before answering
	Delays map[string]time.Duration
	// Regions is returned by Liveness
	Regions []comparator.Region
	// LivenessErr, when set, is returned by Liveness
	LivenessErr error
	// Default is returned for references missing from Distances
	Default float64
	// ReadSources makes Distance read both images under its context first,
	// the way a remote comparator uploads them
	ReadSources bool

	livenessCalls int
	distanceCalls []string
}

// New returns a Stub reporting a single live face and the given distances.
func New(distances map[string]float64) *Stub {
	return &Stub{
		Distances: distances,
		Regions:   []comparator.Region{{W: 100, H: 100, Confidence: 0.99, IsReal: true}},
		Default:   1,
	}
}

// Spoof returns a Stub whose liveness check reports a fake face.
func Spoof(distances map[string]float64) *Stub {
	s := New(distances)
	s.Regions = []comparator.Region{{W: 100, H: 100, Confidence: 0.99, IsReal: false, AntiSpoofScore: 0.9}}
	return s
}

func (s *Stub) Liveness(ctx context.Context, _ comparator.Source) ([]comparator.Region, error) {
	s.mu.Lock()
	s.livenessCalls++
	regions, err := s.Regions, s.LivenessErr
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return regions, nil
}

func (s *Stub) Distance(ctx context.Context, probe, ref comparator.Source) (float64, error) {
	name := ref.Name()

	s.mu.Lock()
	s.distanceCalls = append(s.distanceCalls, name)
	delay := s.Delays[name]
	failure := s.Failures[name]
	d, ok := s.Distances[name]
	if !ok {
		d = s.Default
	}
	read := s.ReadSources
	s.mu.Unlock()

	if read {
		for _, src := range []comparator.Source{probe, ref} {
			if err := drain(ctx, src); err != nil {
				return 0, err
			}
		}
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if failure != nil {
		return 0, failure
	}
	return d, nil
}

func drain(ctx context.Context, src comparator.Source) error {
	rc, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(io.Discard, rc)
	return err
}

// LivenessCalls returns how many times Liveness was invoked.
func (s *Stub) LivenessCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.livenessCalls
}

// DistanceCalls returns the reference names Distance was invoked with, in order.
func (s *Stub) DistanceCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.distanceCalls...)
}

// TotalCalls returns the number of Liveness and Distance invocations combined.
func (s *Stub) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.livenessCalls + len(s.distanceCalls)
}

// Bytes is an in-memory comparator.Source.
type Bytes struct {
	ImageName string
	Data      []byte
}

func (b Bytes) Name() string { return b.ImageName }

func (b Bytes) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}
