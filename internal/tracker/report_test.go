package tracker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/detector"
)

func TestTracker_Analyze(t *testing.T) {
	t.Run("located hand", func(t *testing.T) {
		tr, _ := newTracker(t, detector.FistLandmarks(), detector.OpenPalmLandmarks())

		report, err := tr.Analyze(newFrame(t, 480, 640, gocv.MatTypeCV8UC3), 1, nil)

		require.NoError(t, err)
		assert.True(t, report.Found())
		assert.Equal(t, 2, report.Hands)
		assert.Equal(t, 1, report.HandIndex)
		assert.Equal(t, 640, report.Width)
		assert.Equal(t, 480, report.Height)
		assert.Equal(t, "Right", report.Handedness)
		assert.InDelta(t, 0.95, report.Score, 1e-9)
		assert.True(t, report.BoundingBox.Valid)
		assert.Equal(t, []int{1, 1, 1, 1, 1}, report.Fingers)
		assert.Equal(t, 5, report.FingerCount)
		assert.Nil(t, report.Distance)
	})

	t.Run("distance", func(t *testing.T) {
		var hand detector.HandLandmarks
		hand.Points[detector.IndexTip] = detector.Point3D{X: 0.03, Y: 0.04}
		tr, _ := newTracker(t, hand)

		report, err := tr.Analyze(newFrame(t, 100, 100, gocv.MatTypeCV8UC3), 0, &Pair{From: detector.ThumbTip, To: detector.IndexTip})

		require.NoError(t, err)
		require.NotNil(t, report.Distance)
		assert.Equal(t, Pair{From: detector.ThumbTip, To: detector.IndexTip}, report.Distance.Pair)
		assert.InDelta(t, 5.0, report.Distance.Length, 1e-9)
		assert.Equal(t, Segment{0, 0, 3, 4, 1, 2}, report.Distance.Segment)
	})

	t.Run("no hand", func(t *testing.T) {
		tr, _ := newTracker(t)

		report, err := tr.Analyze(newFrame(t, 480, 640, gocv.MatTypeCV8UC3), 0, &Pair{From: 4, To: 8})

		require.NoError(t, err)
		assert.False(t, report.Found())
		assert.Zero(t, report.Hands)
		assert.Empty(t, report.Landmarks)
		assert.Empty(t, report.Fingers)
		assert.Zero(t, report.FingerCount)
		require.NotNil(t, report.Distance)
		assert.Zero(t, report.Distance.Length)
	})

	t.Run("hand out of range", func(t *testing.T) {
		tr, _ := newTracker(t, detector.FistLandmarks())

		_, err := tr.Analyze(newFrame(t, 480, 640, gocv.MatTypeCV8UC3), 1, nil)
		assert.ErrorIs(t, err, ErrHandOutOfRange)
	})

	t.Run("landmark out of range", func(t *testing.T) {
		tr, _ := newTracker(t, detector.FistLandmarks())

		_, err := tr.Analyze(newFrame(t, 480, 640, gocv.MatTypeCV8UC3), 0, &Pair{From: 0, To: 21})
		assert.ErrorIs(t, err, ErrLandmarkOutOfRange)
	})

	t.Run("detector error", func(t *testing.T) {
		tr, mock := newTracker(t)
		mock.SetError(errors.New("inference failed"))

		_, err := tr.Analyze(newFrame(t, 480, 640, gocv.MatTypeCV8UC3), 0, nil)
		assert.Error(t, err)
	})
}
