package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/logger"
)

// IdleTimeout is how long the helper process may sit unused before it is stopped.
const IdleTimeout = 30 * time.Second

const scriptName = "mediapipe_service.py"

// ErrScriptNotFound is returned when the MediaPipe helper script cannot be located.
var ErrScriptNotFound = errors.New(scriptName + " not found")

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Each frame is written as a 12-byte big-endian header (width, height,
// channels) followed by the raw RGB pixels. The helper answers with one JSON
// line per frame.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	lastUsed   time.Time
	idleTimer  *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := config.Script
	if scriptPath == "" {
		scriptPath = findMediaPipeScript()
	}
	if scriptPath == "" {
		return nil, ErrScriptNotFound
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("mediapipe script: %w", err)
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
	}, nil
}

// Detect analyzes an RGB frame and returns detected hand landmarks.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	data := frame.ToBytes()

	header := make([]byte, 12)
	binary.BigEndian.PutUint32(header[0:4], uint32(frame.Cols()))
	binary.BigEndian.PutUint32(header[4:8], uint32(frame.Rows()))
	binary.BigEndian.PutUint32(header[8:12], uint32(frame.Channels()))

	if _, err := d.stdin.Write(header); err != nil {
		return nil, d.fail(fmt.Errorf("write header: %w", err))
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, d.fail(fmt.Errorf("write data: %w", err))
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, d.fail(fmt.Errorf("read response: %w", err))
	}

	var response struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("mediapipe: %s", response.Error)
	}

	result := make([]HandLandmarks, len(response.Hands))
	for i, h := range response.Hands {
		result[i] = h.toHandLandmarks()
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return result, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

// args builds the helper command line from the detector configuration.
func (d *MediaPipeDetector) args() []string {
	args := []string{
		d.scriptPath,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	}
	if d.config.StaticMode {
		args = append(args, "--static-mode")
	}
	return args
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := d.config.Python
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.args()...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	logger.L().Info("mediapipe helper started",
		zap.String("python", pythonPath),
		zap.String("script", d.scriptPath),
		zap.Int("pid", d.cmd.Process.Pid))

	return nil
}

// fail tears down a helper whose pipes are broken so the next call respawns it.
func (d *MediaPipeDetector) fail(err error) error {
	if shutdownErr := d.shutdown(); shutdownErr != nil {
		logger.L().Warn("mediapipe helper exited", zap.Error(shutdownErr))
	}
	return err
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	logger.L().Debug("mediapipe helper stopped")
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if time.Since(d.lastUsed) < IdleTimeout {
			return
		}
		if err := d.shutdown(); err != nil {
			logger.L().Warn("idle shutdown", zap.Error(err))
		}
	})
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".handtrack", "scripts", scriptName),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".handtrack/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if absPath, err := filepath.Abs(path); err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (h jsonHand) toHandLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	for i := 0; i < NumLandmarks && i < len(h.Points); i++ {
		lm.Points[i] = Point3D(h.Points[i])
	}

	return lm
}
