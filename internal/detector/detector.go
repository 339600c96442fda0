package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect runs the hand model on an RGB frame and returns one entry per
	// detected hand. Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection. The values are
// handed to the model unchanged.
type Config struct {
	// StaticMode treats every frame as an independent image instead of
	// tracking hands across frames.
	StaticMode bool `yaml:"static_mode"`

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `yaml:"max_hands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_detection_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`

	// Python is the interpreter used for the MediaPipe helper. Empty means
	// search for a virtualenv, then fall back to python3.
	Python string `yaml:"python"`

	// Script is the path of the MediaPipe helper script. Empty means search
	// the usual locations.
	Script string `yaml:"script"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		StaticMode:      false,
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
