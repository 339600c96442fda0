// Package app wires the detector, tracker and store together for the
// handtrack command.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/detector"
	"github.com/ayusman/handtrack/internal/logger"
	"github.com/ayusman/handtrack/internal/recorder"
	"github.com/ayusman/handtrack/internal/server"
	"github.com/ayusman/handtrack/internal/store"
	"github.com/ayusman/handtrack/internal/tracker"
)

// ErrRecordingDisabled is returned when a snapshot is requested without a store.
var ErrRecordingDisabled = errors.New("recording requires a store")

// Config holds configuration options for the application.
type Config struct {
	Store         *store.Store
	Detector      detector.Config
	Tracker       tracker.Config
	StaticDir     string
	MaxImageBytes int64
}

// Options controls how a single image is processed.
type Options struct {
	HandIndex int
	Pair      *tracker.Pair
	Record    bool
	Label     string
	// OutDir receives the annotated image when set.
	OutDir string
}

// Result is the outcome of processing one image file.
type Result struct {
	Path string `json:"path"`
	tracker.Report
	SnapshotID string `json:"snapshot_id,omitempty"`
	Annotated  string `json:"annotated,omitempty"`
}

// App owns the hand detector and optional snapshot recorder.
type App struct {
	config   Config
	detector detector.Detector
	recorder *recorder.Recorder
	mu       sync.RWMutex
}

// New creates a new App. It uses the MediaPipe helper when it can be
// started and falls back to the mock detector otherwise.
func New(config Config) *App {
	a := &App{config: config}

	if config.Store != nil {
		a.recorder = recorder.New(config.Store)
	}

	if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
		a.detector = mp
		logger.L().Info("using MediaPipe hand detection")
	} else {
		logger.L().Warn("MediaPipe not available, using mock detector", zap.Error(err))
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// ProcessFile reads the image at path, analyzes it and, depending on opts,
// records a snapshot and writes the annotated image.
func (a *App) ProcessFile(path string, opts Options) (Result, error) {
	if opts.Record && a.recorder == nil {
		return Result{}, ErrRecordingDisabled
	}

	img := gocv.IMRead(path, gocv.IMReadAnyColor)
	if img.Empty() {
		img.Close()
		return Result{}, fmt.Errorf("read image %s: %w", path, tracker.ErrEmptyImage)
	}
	defer img.Close()

	cfg := a.config.Tracker
	cfg.Draw = opts.OutDir != ""
	order, err := tracker.ColorOrderForChannels(img.Channels())
	if err != nil {
		return Result{}, fmt.Errorf("image %s: %w", path, err)
	}
	cfg.ColorOrder = order

	t, err := tracker.New(a.Detector(), cfg)
	if err != nil {
		return Result{}, err
	}

	report, err := t.Analyze(&img, opts.HandIndex, opts.Pair)
	if err != nil {
		return Result{}, fmt.Errorf("analyze %s: %w", path, err)
	}

	result := Result{Path: path, Report: report}

	if opts.Record && report.Found() {
		id, err := a.recorder.Record(report, opts.Label)
		if err != nil {
			return Result{}, err
		}
		result.SnapshotID = id
	}

	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
			return Result{}, fmt.Errorf("create output directory: %w", err)
		}
		out := filepath.Join(opts.OutDir, filepath.Base(path))
		if !gocv.IMWrite(out, img) {
			return Result{}, fmt.Errorf("write annotated image %s", out)
		}
		result.Annotated = out
	}

	logger.L().Debug("image processed",
		zap.String("path", path),
		zap.Int("hands", report.Hands),
		zap.Int("fingers", report.FingerCount))

	return result, nil
}

// Server builds the HTTP server over the app's detector and store.
func (a *App) Server() *server.Server {
	return server.New(server.Config{
		StaticDir:     a.config.StaticDir,
		Store:         a.config.Store,
		Detector:      a.Detector(),
		Tracker:       a.config.Tracker,
		MaxImageBytes: a.config.MaxImageBytes,
	})
}

// Close releases the hand detector.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.detector == nil {
		return nil
	}
	err := a.detector.Close()
	a.detector = nil
	return err
}
