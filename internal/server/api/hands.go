package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/handtrack/internal/detector"
	"github.com/ayusman/handtrack/internal/logger"
	"github.com/ayusman/handtrack/internal/recorder"
	"github.com/ayusman/handtrack/internal/tracker"
)

// DefaultMaxImageBytes limits uploads when no limit is configured.
const DefaultMaxImageBytes = 10 << 20

// HandsHandler runs the tracker on uploaded images.
//
// Every request gets its own Tracker over the shared detector, so the
// detector must be safe for concurrent use.
type HandsHandler struct {
	detector detector.Detector
	config   tracker.Config
	recorder *recorder.Recorder
	maxBytes int64
}

// NewHandsHandler creates a HandsHandler. rec may be nil, in which case
// record requests are rejected.
func NewHandsHandler(d detector.Detector, cfg tracker.Config, rec *recorder.Recorder, maxBytes int64) *HandsHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &HandsHandler{
		detector: d,
		config:   cfg,
		recorder: rec,
		maxBytes: maxBytes,
	}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/hands and /api/hands/annotate
func (h *HandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/hands":
		h.analyze(w, r)
	case "/api/hands/annotate":
		h.annotate(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type handsQuery struct {
	hand   int
	pair   *tracker.Pair
	record bool
	label  string
}

type handsResponse struct {
	tracker.Report
	SnapshotID string `json:"snapshot_id,omitempty"`
}

func parseHandsQuery(r *http.Request) (handsQuery, error) {
	values := r.URL.Query()
	q := handsQuery{label: values.Get("label")}

	if v := values.Get("hand"); v != "" {
		hand, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("invalid hand %q", v)
		}
		q.hand = hand
	}

	from, to := values.Get("from"), values.Get("to")
	if from != "" || to != "" {
		a, errA := strconv.Atoi(from)
		b, errB := strconv.Atoi(to)
		if errA != nil || errB != nil {
			return q, errors.New("from and to must both be landmark indices")
		}
		if !detector.ValidLandmark(a) || !detector.ValidLandmark(b) {
			return q, fmt.Errorf("landmark indices must be in [0, %d)", detector.NumLandmarks)
		}
		q.pair = &tracker.Pair{From: a, To: b}
	}

	if v := values.Get("record"); v != "" {
		record, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("invalid record %q", v)
		}
		q.record = record
	}

	return q, nil
}

// decode reads the request body as an encoded image.
func (h *HandsHandler) decode(w http.ResponseWriter, r *http.Request) (gocv.Mat, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return gocv.Mat{}, errors.New("empty request body")
	}

	img, err := gocv.IMDecode(data, gocv.IMReadAnyColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode image: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, errors.New("decode image: unsupported format")
	}
	return img, nil
}

// run decodes the image and analyzes it with a fresh Tracker.
// On error it has already written the response.
func (h *HandsHandler) run(w http.ResponseWriter, r *http.Request, q handsQuery, draw bool) (gocv.Mat, tracker.Report, bool) {
	img, err := h.decode(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return gocv.Mat{}, tracker.Report{}, false
	}

	cfg := h.config
	cfg.Draw = draw
	cfg.ColorOrder, err = tracker.ColorOrderForChannels(img.Channels())
	if err != nil {
		img.Close()
		writeError(w, http.StatusBadRequest, err.Error())
		return gocv.Mat{}, tracker.Report{}, false
	}

	t, err := tracker.New(h.detector, cfg)
	if err != nil {
		img.Close()
		writeError(w, http.StatusInternalServerError, "Failed to create tracker")
		return gocv.Mat{}, tracker.Report{}, false
	}

	report, err := t.Analyze(&img, q.hand, q.pair)
	if err != nil {
		img.Close()
		switch {
		case errors.Is(err, tracker.ErrHandOutOfRange):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, tracker.ErrLandmarkOutOfRange), errors.Is(err, tracker.ErrEmptyImage):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			logger.L().Error("hand analysis failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to analyze image")
		}
		return gocv.Mat{}, tracker.Report{}, false
	}

	return img, report, true
}

// analyze handles POST /api/hands
func (h *HandsHandler) analyze(w http.ResponseWriter, r *http.Request) {
	q, err := parseHandsQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if q.record && h.recorder == nil {
		writeError(w, http.StatusBadRequest, "Recording is not enabled")
		return
	}

	img, report, ok := h.run(w, r, q, false)
	if !ok {
		return
	}
	img.Close()

	response := handsResponse{Report: report}

	if q.record && report.Found() {
		id, err := h.recorder.Record(report, q.label)
		if err != nil {
			logger.L().Error("record snapshot failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to record snapshot")
			return
		}
		response.SnapshotID = id
	}

	writeJSON(w, http.StatusOK, response)
}

// annotate handles POST /api/hands/annotate and returns the drawn JPEG.
func (h *HandsHandler) annotate(w http.ResponseWriter, r *http.Request) {
	q, err := parseHandsQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, report, ok := h.run(w, r, q, true)
	if !ok {
		return
	}
	defer img.Close()

	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		logger.L().Error("encode annotated image failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to encode image")
		return
	}
	defer buf.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("X-Hands", strconv.Itoa(report.Hands))
	w.Header().Set("X-Fingers", strconv.Itoa(report.FingerCount))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.GetBytes())
}
