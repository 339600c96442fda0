// Package detector provides the hand-landmark model adapter and its result types.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// FingerTips lists the tip landmark of each finger, thumb first.
var FingerTips = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// HandConnections is the hand skeleton as pairs of landmark indices,
// matching the model's HAND_CONNECTIONS.
var HandConnections = [][2]int{
	// palm
	{Wrist, ThumbCMC}, {Wrist, IndexMCP}, {IndexMCP, MiddleMCP},
	{MiddleMCP, RingMCP}, {RingMCP, PinkyMCP}, {Wrist, PinkyMCP},
	// thumb
	{ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	// index
	{IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	// middle
	{MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	// ring
	{RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	// pinky
	{PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// Point3D is a landmark position as produced by the model. X and Y are
// normalized to [0,1] by image width and height; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// ValidLandmark reports whether id is a landmark index of the hand skeleton.
func ValidLandmark(id int) bool {
	return id >= 0 && id < NumLandmarks
}
