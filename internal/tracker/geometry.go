package tracker

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ayusman/handtrack/internal/detector"
)

// Landmark is one hand keypoint in pixel coordinates.
type Landmark struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

// Point returns the landmark position as an image.Point.
func (l Landmark) Point() image.Point {
	return image.Pt(l.X, l.Y)
}

// LandmarkSet holds the landmarks of one hand in skeleton index order.
// It has either detector.NumLandmarks entries or none.
type LandmarkSet []Landmark

// BoundingBox is the smallest axis-aligned rectangle containing a LandmarkSet.
// The zero value is the empty box.
type BoundingBox struct {
	MinX  int  `json:"min_x"`
	MinY  int  `json:"min_y"`
	MaxX  int  `json:"max_x"`
	MaxY  int  `json:"max_y"`
	Valid bool `json:"valid"`
}

// Rect returns the box as an image.Rectangle grown by margin pixels on each side.
func (b BoundingBox) Rect(margin int) image.Rectangle {
	return image.Rect(b.MinX-margin, b.MinY-margin, b.MaxX+margin, b.MaxY+margin)
}

// Width returns MaxX-MinX.
func (b BoundingBox) Width() int { return b.MaxX - b.MinX }

// Height returns MaxY-MinY.
func (b BoundingBox) Height() int { return b.MaxY - b.MinY }

// Segment is a measured landmark pair laid out as x1, y1, x2, y2, midX, midY.
type Segment [6]int

// From returns the first endpoint.
func (s Segment) From() image.Point { return image.Pt(s[0], s[1]) }

// To returns the second endpoint.
func (s Segment) To() image.Point { return image.Pt(s[2], s[3]) }

// Mid returns the midpoint.
func (s Segment) Mid() image.Point { return image.Pt(s[4], s[5]) }

// Locate converts normalized model output to pixel landmarks for an image of
// the given size and computes their bounding box.
func Locate(hand detector.HandLandmarks, width, height int) (LandmarkSet, BoundingBox) {
	set := make(LandmarkSet, detector.NumLandmarks)
	for id, p := range hand.Points {
		set[id] = Landmark{
			ID: id,
			X:  toPixel(p.X, width),
			Y:  toPixel(p.Y, height),
		}
	}
	return set, Bounds(set)
}

// Bounds folds a LandmarkSet into its bounding box. An empty set gives the
// empty box.
func Bounds(set LandmarkSet) BoundingBox {
	if len(set) == 0 {
		return BoundingBox{}
	}

	box := BoundingBox{
		MinX:  set[0].X,
		MinY:  set[0].Y,
		MaxX:  set[0].X,
		MaxY:  set[0].Y,
		Valid: true,
	}
	for _, lm := range set[1:] {
		box.MinX = min(box.MinX, lm.X)
		box.MinY = min(box.MinY, lm.Y)
		box.MaxX = max(box.MaxX, lm.X)
		box.MaxY = max(box.MaxY, lm.Y)
	}
	return box
}

// Measure returns the Euclidean distance between two landmarks and the
// segment joining them. The midpoint is floor((a+b)/2) per axis.
func Measure(a, b Landmark) (float64, Segment) {
	length := floats.Distance(
		[]float64{float64(a.X), float64(a.Y)},
		[]float64{float64(b.X), float64(b.Y)},
		2,
	)
	seg := Segment{a.X, a.Y, b.X, b.Y, midpoint(a.X, b.X), midpoint(a.Y, b.Y)}
	return length, seg
}

// Fingers classifies which fingers of set are extended, thumb first.
//
// The thumb counts as extended when its tip lies right of the IP joint. This
// only holds for a right hand in a mirrored camera feed (or a left hand in an
// unmirrored one) and does not survive hand rotation. The other fingers count
// as extended when the tip lies above the PIP joint in image coordinates.
func Fingers(set LandmarkSet) []int {
	if len(set) != detector.NumLandmarks {
		return []int{}
	}

	fingers := make([]int, 0, len(detector.FingerTips))

	if set[detector.ThumbTip].X > set[detector.ThumbTip-1].X {
		fingers = append(fingers, 1)
	} else {
		fingers = append(fingers, 0)
	}

	for _, tip := range detector.FingerTips[1:] {
		if set[tip].Y < set[tip-2].Y {
			fingers = append(fingers, 1)
		} else {
			fingers = append(fingers, 0)
		}
	}

	return fingers
}

func toPixel(v float64, dim int) int {
	return int(math.Round(v * float64(dim)))
}

func midpoint(a, b int) int {
	s := a + b
	if s < 0 && s%2 != 0 {
		return s/2 - 1
	}
	return s / 2
}
