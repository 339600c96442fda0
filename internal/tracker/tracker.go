// Package tracker turns per-frame hand model output into pixel landmarks,
// bounding boxes, landmark distances and finger states.
//
// A Tracker keeps the result of the last FindHands call and the last
// FindPosition call for the current frame only. It is not safe for
// concurrent use; give each goroutine its own Tracker.
package tracker

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/detector"
	"github.com/ayusman/handtrack/internal/logger"
)

// DefaultBoxMargin is the padding in pixels drawn around a bounding box.
const DefaultBoxMargin = 20

var (
	// ErrNoDetection is returned when a query needs a FindHands result and
	// there is none.
	ErrNoDetection = errors.New("no detection for current frame")

	// ErrHandOutOfRange is returned when a hand index does not select one of
	// the detected hands.
	ErrHandOutOfRange = errors.New("hand index out of range")

	// ErrLandmarkOutOfRange is returned for landmark ids outside the skeleton.
	ErrLandmarkOutOfRange = errors.New("landmark index out of range")

	// ErrEmptyImage is returned when an image has no pixels.
	ErrEmptyImage = errors.New("empty image")

	// ErrUnknownColorOrder is returned for an unsupported ColorOrder.
	ErrUnknownColorOrder = errors.New("unknown color order")
)

// ColorOrder names the channel layout of the images handed to a Tracker.
type ColorOrder string

// Supported channel layouts.
const (
	ColorBGR  ColorOrder = "bgr"
	ColorBGRA ColorOrder = "bgra"
	ColorRGB  ColorOrder = "rgb"
	ColorRGBA ColorOrder = "rgba"
	ColorGray ColorOrder = "gray"
)

// conversion returns the gocv code that turns o into RGB. ok is false when
// no conversion is needed.
func (o ColorOrder) conversion() (code gocv.ColorConversionCode, ok bool, err error) {
	switch o {
	case ColorBGR, "":
		return gocv.ColorBGRToRGB, true, nil
	case ColorBGRA:
		return gocv.ColorBGRAToRGB, true, nil
	case ColorRGB:
		return 0, false, nil
	case ColorRGBA:
		return gocv.ColorRGBAToRGB, true, nil
	case ColorGray:
		return gocv.ColorGrayToRGB, true, nil
	default:
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownColorOrder, string(o))
	}
}

// ColorOrderForChannels returns the layout gocv uses when it decodes an
// image with the given number of channels.
func ColorOrderForChannels(channels int) (ColorOrder, error) {
	switch channels {
	case 1:
		return ColorGray, nil
	case 3:
		return ColorBGR, nil
	case 4:
		return ColorBGRA, nil
	default:
		return "", fmt.Errorf("%w: %d channels", ErrUnknownColorOrder, channels)
	}
}

// Config holds Tracker options fixed at construction.
type Config struct {
	// ColorOrder is the channel layout of input images (default bgr).
	ColorOrder ColorOrder `yaml:"color_order"`

	// Draw enables drawing the skeleton, bounding box and measured segments
	// onto the input image. Callers set it per use; it is not read from
	// config files.
	Draw bool `yaml:"-"`

	// BoxMargin pads the drawn bounding box on every side.
	BoxMargin int `yaml:"box_margin"`
}

// DefaultConfig returns the Config used when none is given.
func DefaultConfig() Config {
	return Config{
		ColorOrder: ColorBGR,
		Draw:       true,
		BoxMargin:  DefaultBoxMargin,
	}
}

// Tracker post-processes the output of a hand detector frame by frame.
type Tracker struct {
	detector detector.Detector
	config   Config

	detected  bool
	hands     []detector.HandLandmarks
	landmarks LandmarkSet
	box       BoundingBox
}

// New creates a Tracker around d.
func New(d detector.Detector, config Config) (*Tracker, error) {
	if d == nil {
		return nil, errors.New("nil detector")
	}
	if _, _, err := config.ColorOrder.conversion(); err != nil {
		return nil, err
	}
	if config.ColorOrder == "" {
		config.ColorOrder = ColorBGR
	}

	return &Tracker{
		detector: d,
		config:   config,
	}, nil
}

// FindHands runs the detector on img and keeps the result for the queries
// that follow on the same frame. Finding no hand is not an error.
//
// img is converted from the configured ColorOrder to RGB before inference.
// When drawing is enabled each hand's skeleton is drawn onto img in place.
// Detector errors are returned wrapped and clear the stored result.
func (t *Tracker) FindHands(img *gocv.Mat) (int, error) {
	t.Reset()

	if img == nil || img.Empty() {
		return 0, ErrEmptyImage
	}

	code, convert, err := t.config.ColorOrder.conversion()
	if err != nil {
		return 0, err
	}

	input := img
	if convert {
		rgb := gocv.NewMat()
		defer rgb.Close()
		gocv.CvtColor(*img, &rgb, code)
		input = &rgb
	}

	hands, err := t.detector.Detect(input)
	if err != nil {
		return 0, fmt.Errorf("detect hands: %w", err)
	}

	t.detected = true
	t.hands = hands

	if t.config.Draw {
		for _, hand := range hands {
			drawHand(img, hand)
		}
	}

	logger.L().Debug("hands detected",
		zap.Int("count", len(hands)),
		zap.Int("width", img.Cols()),
		zap.Int("height", img.Rows()))

	return len(hands), nil
}

// FindPosition converts hand handIndex of the last detection to pixel
// coordinates for img and returns its landmarks and bounding box.
//
// When the last FindHands found no hand, both results are empty and the
// error is nil. Calling it before FindHands returns ErrNoDetection; an index
// that selects no detected hand returns ErrHandOutOfRange.
func (t *Tracker) FindPosition(img *gocv.Mat, handIndex int) (LandmarkSet, BoundingBox, error) {
	t.landmarks = LandmarkSet{}
	t.box = BoundingBox{}

	if !t.detected {
		return LandmarkSet{}, BoundingBox{}, ErrNoDetection
	}
	if len(t.hands) == 0 {
		return LandmarkSet{}, BoundingBox{}, nil
	}
	if handIndex < 0 || handIndex >= len(t.hands) {
		return LandmarkSet{}, BoundingBox{}, fmt.Errorf("%w: %d of %d", ErrHandOutOfRange, handIndex, len(t.hands))
	}
	if img == nil || img.Empty() {
		return LandmarkSet{}, BoundingBox{}, ErrEmptyImage
	}

	t.landmarks, t.box = Locate(t.hands[handIndex], img.Cols(), img.Rows())

	if t.config.Draw {
		drawBox(img, t.box, t.config.BoxMargin)
	}

	return t.landmarks, t.box, nil
}

// FindDistance measures the pixel distance between landmarks a and b of the
// last located hand and returns the segment joining them.
//
// Without a located hand it returns 0 and a zero Segment rather than an
// error; callers treat that as "no hand". img may be nil, in which case
// nothing is drawn.
func (t *Tracker) FindDistance(a, b int, img *gocv.Mat) (float64, Segment, error) {
	if len(t.landmarks) == 0 {
		return 0, Segment{}, nil
	}
	if !detector.ValidLandmark(a) || !detector.ValidLandmark(b) {
		return 0, Segment{}, fmt.Errorf("%w: %d, %d", ErrLandmarkOutOfRange, a, b)
	}

	length, seg := Measure(t.landmarks[a], t.landmarks[b])

	if t.config.Draw && img != nil && !img.Empty() {
		drawSegment(img, seg)
	}

	return length, seg, nil
}

// FingersUp reports which fingers of the last located hand are extended,
// thumb first, as five 0/1 flags. It is empty when no hand is located.
func (t *Tracker) FingersUp() []int {
	return Fingers(t.landmarks)
}

// CountFingers returns the number of extended fingers of the last located hand.
func (t *Tracker) CountFingers() int {
	n := 0
	for _, f := range t.FingersUp() {
		n += f
	}
	return n
}

// Hands returns the raw result of the last FindHands call.
func (t *Tracker) Hands() []detector.HandLandmarks {
	return t.hands
}

// Landmarks returns the result of the last FindPosition call.
func (t *Tracker) Landmarks() (LandmarkSet, BoundingBox) {
	return t.landmarks, t.box
}

// Reset drops all per-frame state.
func (t *Tracker) Reset() {
	t.detected = false
	t.hands = nil
	t.landmarks = LandmarkSet{}
	t.box = BoundingBox{}
}

// Close releases the underlying detector.
func (t *Tracker) Close() error {
	t.Reset()
	return t.detector.Close()
}
