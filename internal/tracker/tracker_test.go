package tracker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/detector"
)

func newFrame(t *testing.T, rows, cols int, mt gocv.MatType) *gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, mt)
	t.Cleanup(func() { mat.Close() })
	return &mat
}

func newTracker(t *testing.T, hands ...detector.HandLandmarks) (*Tracker, *detector.MockDetector) {
	t.Helper()
	mock := detector.NewMockDetector()
	mock.SetHands(hands)

	cfg := DefaultConfig()
	cfg.Draw = false
	tr, err := New(mock, cfg)
	require.NoError(t, err)
	return tr, mock
}

func TestNew(t *testing.T) {
	t.Run("nil detector", func(t *testing.T) {
		_, err := New(nil, DefaultConfig())
		assert.Error(t, err)
	})

	t.Run("unknown color order", func(t *testing.T) {
		_, err := New(detector.NewMockDetector(), Config{ColorOrder: "yuv"})
		assert.ErrorIs(t, err, ErrUnknownColorOrder)
	})

	t.Run("empty color order defaults to bgr", func(t *testing.T) {
		tr, err := New(detector.NewMockDetector(), Config{})
		require.NoError(t, err)
		assert.Equal(t, ColorBGR, tr.config.ColorOrder)
	})
}

func TestTracker_FindHands(t *testing.T) {
	t.Run("no hands is not an error", func(t *testing.T) {
		tr, _ := newTracker(t)

		n, err := tr.FindHands(newFrame(t, 480, 640, gocv.MatTypeCV8UC3))

		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, tr.Hands())
	})

	t.Run("stores detected hands", func(t *testing.T) {
		tr, mock := newTracker(t, detector.OpenPalmLandmarks(), detector.FistLandmarks())

		n, err := tr.FindHands(newFrame(t, 480, 640, gocv.MatTypeCV8UC3))

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Len(t, tr.Hands(), 2)
		assert.Equal(t, 1, mock.Calls())
	})

	t.Run("converts to three channel RGB before inference", func(t *testing.T) {
		mock := detector.NewMockDetector()
		tr, err := New(mock, Config{ColorOrder: ColorBGRA})
		require.NoError(t, err)

		_, err = tr.FindHands(newFrame(t, 120, 160, gocv.MatTypeCV8UC4))
		require.NoError(t, err)

		cols, rows, ch := mock.LastFrame()
		assert.Equal(t, 160, cols)
		assert.Equal(t, 120, rows)
		assert.Equal(t, 3, ch)
	})

	t.Run("gray input", func(t *testing.T) {
		mock := detector.NewMockDetector()
		tr, err := New(mock, Config{ColorOrder: ColorGray})
		require.NoError(t, err)

		_, err = tr.FindHands(newFrame(t, 10, 10, gocv.MatTypeCV8UC1))
		require.NoError(t, err)

		_, _, ch := mock.LastFrame()
		assert.Equal(t, 3, ch)
	})

	t.Run("empty image", func(t *testing.T) {
		tr, mock := newTracker(t)

		empty := gocv.NewMat()
		defer empty.Close()

		_, err := tr.FindHands(&empty)
		assert.ErrorIs(t, err, ErrEmptyImage)

		_, err = tr.FindHands(nil)
		assert.ErrorIs(t, err, ErrEmptyImage)
		assert.Zero(t, mock.Calls())
	})

	t.Run("detector error propagates and clears state", func(t *testing.T) {
		tr, mock := newTracker(t, detector.OpenPalmLandmarks())
		frame := newFrame(t, 480, 640, gocv.MatTypeCV8UC3)

		_, err := tr.FindHands(frame)
		require.NoError(t, err)

		boom := errors.New("inference failed")
		mock.SetError(boom)

		_, err = tr.FindHands(frame)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, tr.Hands())

		_, _, err = tr.FindPosition(frame, 0)
		assert.ErrorIs(t, err, ErrNoDetection)
	})

	t.Run("drawn annotations are opaque on bgra frames", func(t *testing.T) {
		mock := detector.NewMockDetector()
		mock.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
		cfg := DefaultConfig()
		cfg.ColorOrder = ColorBGRA
		tr, err := New(mock, cfg)
		require.NoError(t, err)

		frame := newFrame(t, 480, 640, gocv.MatTypeCV8UC4)
		_, err = tr.FindHands(frame)
		require.NoError(t, err)
		_, _, err = tr.FindPosition(frame, 0)
		require.NoError(t, err)

		channels := gocv.Split(*frame)
		defer func() {
			for _, c := range channels {
				c.Close()
			}
		}()
		require.Len(t, channels, 4)
		assert.Positive(t, gocv.CountNonZero(channels[3]), "alpha channel should be written")
	})

	t.Run("draws skeleton in place", func(t *testing.T) {
		mock := detector.NewMockDetector()
		mock.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
		tr, err := New(mock, DefaultConfig())
		require.NoError(t, err)

		frame := newFrame(t, 480, 640, gocv.MatTypeCV8UC3)
		_, err = tr.FindHands(frame)
		require.NoError(t, err)

		gray := gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
		assert.Positive(t, gocv.CountNonZero(gray))
	})
}

func TestTracker_FindPosition(t *testing.T) {
	t.Run("before FindHands", func(t *testing.T) {
		tr, _ := newTracker(t, detector.OpenPalmLandmarks())

		set, box, err := tr.FindPosition(newFrame(t, 480, 640, gocv.MatTypeCV8UC3), 0)

		assert.ErrorIs(t, err, ErrNoDetection)
		assert.Empty(t, set)
		assert.False(t, box.Valid)
	})

	t.Run("no hand gives empty results", func(t *testing.T) {
		tr, _ := newTracker(t)
		frame := newFrame(t, 480, 640, gocv.MatTypeCV8UC3)
		_, err := tr.FindHands(frame)
		require.NoError(t, err)

		set, box, err := tr.FindPosition(frame, 0)

		require.NoError(t, err)
		assert.Empty(t, set)
		assert.Equal(t, BoundingBox{}, box)
	})

	t.Run("hand index out of range", func(t *testing.T) {
		tr, _ := newTracker(t, detector.OpenPalmLandmarks())
		frame := newFrame(t, 480, 640, gocv.MatTypeCV8UC3)
		_, err := tr.FindHands(frame)
		require.NoError(t, err)

		for _, idx := range []int{-1, 1, 5} {
			_, _, err := tr.FindPosition(frame, idx)
			assert.ErrorIs(t, err, ErrHandOutOfRange)
		}
	})

	t.Run("uses image size at call time", func(t *testing.T) {
		tr, _ := newTracker(t, detector.OpenPalmLandmarks())
		_, err := tr.FindHands(newFrame(t, 480, 640, gocv.MatTypeCV8UC3))
		require.NoError(t, err)

		set, box, err := tr.FindPosition(newFrame(t, 100, 100, gocv.MatTypeCV8UC3), 0)

		require.NoError(t, err)
		require.Len(t, set, detector.NumLandmarks)
		assert.Equal(t, Landmark{ID: detector.Wrist, X: 50, Y: 80}, set[detector.Wrist])
		assert.Equal(t, BoundingBox{MinX: 34, MinY: 28, MaxX: 73, MaxY: 80, Valid: true}, box)

		stored, storedBox := tr.Landmarks()
		assert.Equal(t, set, stored)
		assert.Equal(t, box, storedBox)
	})

	t.Run("selects the requested hand", func(t *testing.T) {
		tr, _ := newTracker(t, detector.OpenPalmLandmarks(), detector.FistLandmarks())
		frame := newFrame(t, 480, 640, gocv.MatTypeCV8UC3)
		_, err := tr.FindHands(frame)
		require.NoError(t, err)

		_, _, err = tr.FindPosition(frame, 1)
		require.NoError(t, err)

		assert.Equal(t, []int{0, 0, 0, 0, 0}, tr.FingersUp())
	})

	t.Run("out of range clears the previous landmark set", func(t *testing.T) {
		tr, _ := newTracker(t, detector.OpenPalmLandmarks())
		frame := newFrame(t, 480, 640, gocv.MatTypeCV8UC3)
		_, err := tr.FindHands(frame)
		require.NoError(t, err)
		_, _, err = tr.FindPosition(frame, 0)
		require.NoError(t, err)

		_, _, err = tr.FindPosition(frame, 3)
		require.Error(t, err)

		assert.Empty(t, tr.FingersUp())
	})
}

func TestTracker_FindDistance(t *testing.T) {
	t.Run("no landmark set is a soft failure", func(t *testing.T) {
		tr, _ := newTracker(t)

		length, seg, err := tr.FindDistance(detector.ThumbTip, detector.IndexTip, nil)

		require.NoError(t, err)
		assert.Zero(t, length)
		assert.Equal(t, Segment{0, 0, 0, 0, 0, 0}, seg)
	})

	t.Run("measures located landmarks", func(t *testing.T) {
		var hand detector.HandLandmarks
		hand.Points[detector.ThumbTip] = detector.Point3D{X: 0.00, Y: 0.00}
		hand.Points[detector.IndexTip] = detector.Point3D{X: 0.03, Y: 0.04}

		tr, _ := newTracker(t, hand)
		frame := newFrame(t, 100, 100, gocv.MatTypeCV8UC3)
		_, err := tr.FindHands(frame)
		require.NoError(t, err)
		_, _, err = tr.FindPosition(frame, 0)
		require.NoError(t, err)

		length, seg, err := tr.FindDistance(detector.ThumbTip, detector.IndexTip, frame)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, length, 1e-9)
		assert.Equal(t, Segment{0, 0, 3, 4, 1, 2}, seg)

		reverse, _, err := tr.FindDistance(detector.IndexTip, detector.ThumbTip, nil)
		require.NoError(t, err)
		assert.Equal(t, length, reverse)
	})

	t.Run("invalid landmark id", func(t *testing.T) {
		tr, _ := newTracker(t, detector.OpenPalmLandmarks())
		frame := newFrame(t, 480, 640, gocv.MatTypeCV8UC3)
		_, err := tr.FindHands(frame)
		require.NoError(t, err)
		_, _, err = tr.FindPosition(frame, 0)
		require.NoError(t, err)

		_, _, err = tr.FindDistance(detector.ThumbTip, detector.NumLandmarks, nil)
		assert.ErrorIs(t, err, ErrLandmarkOutOfRange)
	})
}

func TestTracker_FingersUp(t *testing.T) {
	t.Run("empty without a located hand", func(t *testing.T) {
		tr, _ := newTracker(t, detector.OpenPalmLandmarks())

		got := tr.FingersUp()

		require.NotNil(t, got)
		assert.Empty(t, got)
		assert.Zero(t, tr.CountFingers())
	})

	t.Run("open palm", func(t *testing.T) {
		tr, _ := newTracker(t, detector.OpenPalmLandmarks())
		frame := newFrame(t, 480, 640, gocv.MatTypeCV8UC3)
		_, err := tr.FindHands(frame)
		require.NoError(t, err)
		_, _, err = tr.FindPosition(frame, 0)
		require.NoError(t, err)

		assert.Equal(t, []int{1, 1, 1, 1, 1}, tr.FingersUp())
		assert.Equal(t, 5, tr.CountFingers())
	})

	t.Run("new frame drops the previous landmark set", func(t *testing.T) {
		tr, mock := newTracker(t, detector.OpenPalmLandmarks())
		frame := newFrame(t, 480, 640, gocv.MatTypeCV8UC3)
		_, err := tr.FindHands(frame)
		require.NoError(t, err)
		_, _, err = tr.FindPosition(frame, 0)
		require.NoError(t, err)

		mock.SetHands(nil)
		_, err = tr.FindHands(frame)
		require.NoError(t, err)

		assert.Empty(t, tr.FingersUp())
	})
}

func TestTracker_Close(t *testing.T) {
	tr, mock := newTracker(t, detector.OpenPalmLandmarks())

	require.NoError(t, tr.Close())

	assert.True(t, mock.Closed())
	assert.Empty(t, tr.Hands())
}
