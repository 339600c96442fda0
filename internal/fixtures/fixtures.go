// Package fixtures builds synthetic frames for tests.
package fixtures

import (
	"bytes"
	"fmt"
	"path/filepath"

	"gocv.io/x/gocv"
)

// BlankFrame returns a black frame of the given size and type.
// The caller must Close it.
func BlankFrame(rows, cols int, mt gocv.MatType) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, mt)
}

// EncodeFrame encodes a blank BGR frame with the codec selected by ext
// (".png" or ".jpg").
func EncodeFrame(ext string, rows, cols int) ([]byte, error) {
	frame := BlankFrame(rows, cols, gocv.MatTypeCV8UC3)
	defer frame.Close()

	buf, err := gocv.IMEncode(gocv.FileExt(ext), frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame %s: %w", ext, err)
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}

// WriteFrame writes a blank BGR frame named name into dir and returns its path.
func WriteFrame(dir, name string, rows, cols int) (string, error) {
	frame := BlankFrame(rows, cols, gocv.MatTypeCV8UC3)
	defer frame.Close()

	path := filepath.Join(dir, name)
	if !gocv.IMWrite(path, frame) {
		return "", fmt.Errorf("write frame %s", path)
	}
	return path, nil
}
