// Package recorder persists tracker reports as store snapshots.
package recorder

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/handtrack/internal/logger"
	"github.com/ayusman/handtrack/internal/store"
	"github.com/ayusman/handtrack/internal/tracker"
)

// ErrNoHand is returned when a report without a located hand is recorded.
var ErrNoHand = errors.New("report has no located hand")

// Recorder writes reports to a store.
type Recorder struct {
	store *store.Store
}

// New creates a Recorder backed by s.
func New(s *store.Store) *Recorder {
	return &Recorder{store: s}
}

// Record stores report under label and returns the new snapshot ID.
func (r *Recorder) Record(report tracker.Report, label string) (string, error) {
	if !report.Found() {
		return "", ErrNoHand
	}

	snap := Snapshot(report, label)
	if err := r.store.Snapshots().Create(snap); err != nil {
		return "", fmt.Errorf("record snapshot: %w", err)
	}

	logger.L().Info("snapshot recorded",
		zap.String("id", snap.ID),
		zap.String("label", label),
		zap.Ints("fingers", report.Fingers))

	return snap.ID, nil
}

// Snapshot converts report to a store.Snapshot with a fresh ID.
func Snapshot(report tracker.Report, label string) *store.Snapshot {
	snap := &store.Snapshot{
		ID:         uuid.New().String(),
		Label:      label,
		HandIndex:  report.HandIndex,
		Handedness: report.Handedness,
		Score:      report.Score,
		Width:      report.Width,
		Height:     report.Height,
		Box: store.Box{
			MinX: report.BoundingBox.MinX,
			MinY: report.BoundingBox.MinY,
			MaxX: report.BoundingBox.MaxX,
			MaxY: report.BoundingBox.MaxY,
		},
		Fingers:   append([]int(nil), report.Fingers...),
		Landmarks: make([]store.Landmark, len(report.Landmarks)),
	}
	for i, lm := range report.Landmarks {
		snap.Landmarks[i] = store.Landmark{Index: lm.ID, X: lm.X, Y: lm.Y}
	}
	return snap
}
