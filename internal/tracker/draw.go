package tracker

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/detector"
)

// Drawing styles. gocv takes colours as RGBA and writes them in BGR order.
var (
	connectionColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	jointColor      = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	boxColor        = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	segmentColor    = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

const (
	filled          = -1
	lineThickness   = 2
	jointRadius     = 4
	endpointRadius  = 15
	connectionWidth = 2
)

// drawHand renders the hand skeleton onto img in place.
func drawHand(img *gocv.Mat, hand detector.HandLandmarks) {
	set, _ := Locate(hand, img.Cols(), img.Rows())

	for _, c := range detector.HandConnections {
		gocv.Line(img, set[c[0]].Point(), set[c[1]].Point(), connectionColor, connectionWidth)
	}

	for _, lm := range set {
		gocv.Circle(img, lm.Point(), jointRadius, jointColor, filled)
	}
}

// drawBox renders box grown by margin onto img in place.
func drawBox(img *gocv.Mat, box BoundingBox, margin int) {
	if !box.Valid {
		return
	}
	gocv.Rectangle(img, box.Rect(margin), boxColor, lineThickness)
}

// drawSegment renders the measured line, both endpoints and the midpoint.
func drawSegment(img *gocv.Mat, seg Segment) {
	gocv.Line(img, seg.From(), seg.To(), segmentColor, lineThickness)
	for _, p := range []image.Point{seg.From(), seg.To(), seg.Mid()} {
		gocv.Circle(img, p, endpointRadius, segmentColor, filled)
	}
}
