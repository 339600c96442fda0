package tracker

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/detector"
)

// Pair selects two landmarks to measure.
type Pair struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Distance is a measured landmark pair.
type Distance struct {
	Pair
	Length  float64 `json:"length"`
	Segment Segment `json:"segment"`
}

// Report is the full per-frame result for one hand.
type Report struct {
	Hands       int         `json:"hands"`
	HandIndex   int         `json:"hand_index"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Handedness  string      `json:"handedness,omitempty"`
	Score       float64     `json:"score,omitempty"`
	Landmarks   LandmarkSet `json:"landmarks"`
	BoundingBox BoundingBox `json:"bbox"`
	Fingers     []int       `json:"fingers"`
	FingerCount int         `json:"finger_count"`
	Distance    *Distance   `json:"distance,omitempty"`
}

// Found reports whether the report describes a located hand.
func (r Report) Found() bool {
	return len(r.Landmarks) == detector.NumLandmarks
}

// Analyze runs the whole per-frame sequence on img: FindHands, FindPosition
// for handIndex, FingersUp and, when pair is set, FindDistance.
func (t *Tracker) Analyze(img *gocv.Mat, handIndex int, pair *Pair) (Report, error) {
	n, err := t.FindHands(img)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Hands:     n,
		HandIndex: handIndex,
		Width:     img.Cols(),
		Height:    img.Rows(),
	}

	report.Landmarks, report.BoundingBox, err = t.FindPosition(img, handIndex)
	if err != nil {
		return Report{}, err
	}

	if report.Found() {
		hand := t.hands[handIndex]
		report.Handedness = hand.Handedness
		report.Score = hand.Score
	}

	report.Fingers = t.FingersUp()
	report.FingerCount = t.CountFingers()

	if pair != nil {
		length, seg, err := t.FindDistance(pair.From, pair.To, img)
		if err != nil {
			return Report{}, err
		}
		report.Distance = &Distance{Pair: *pair, Length: length, Segment: seg}
	}

	return report, nil
}
