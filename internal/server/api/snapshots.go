package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/handtrack/internal/store"
)

// SnapshotsHandler handles HTTP requests for recorded snapshots.
type SnapshotsHandler struct {
	store *store.Store
}

// NewSnapshotsHandler creates a new SnapshotsHandler with the given store.
func NewSnapshotsHandler(s *store.Store) *SnapshotsHandler {
	return &SnapshotsHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SnapshotsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/snapshots or /api/snapshots/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/snapshots")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, path)
	case http.MethodDelete:
		h.delete(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Response types

type landmarkResponse struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

type boxResponse struct {
	MinX int `json:"min_x"`
	MinY int `json:"min_y"`
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

type snapshotResponse struct {
	ID         string             `json:"id"`
	Label      string             `json:"label"`
	HandIndex  int                `json:"hand_index"`
	Handedness string             `json:"handedness"`
	Score      float64            `json:"score"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	BBox       boxResponse        `json:"bbox"`
	Fingers    []int              `json:"fingers"`
	Landmarks  []landmarkResponse `json:"landmarks,omitempty"`
	CreatedAt  string             `json:"created_at"`
}

type listSnapshotsResponse struct {
	Snapshots []snapshotResponse `json:"snapshots"`
}

// toSnapshotResponse converts a store.Snapshot to a snapshotResponse.
func toSnapshotResponse(s *store.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		ID:         s.ID,
		Label:      s.Label,
		HandIndex:  s.HandIndex,
		Handedness: s.Handedness,
		Score:      s.Score,
		Width:      s.Width,
		Height:     s.Height,
		BBox:       boxResponse(s.Box),
		Fingers:    s.Fingers,
		CreatedAt:  s.CreatedAt.Format(timeFormat),
	}
	for _, lm := range s.Landmarks {
		resp.Landmarks = append(resp.Landmarks, landmarkResponse{ID: lm.Index, X: lm.X, Y: lm.Y})
	}
	return resp
}

// list handles GET /api/snapshots?limit=n
func (h *SnapshotsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	snapshots, err := h.store.Snapshots().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	response := listSnapshotsResponse{
		Snapshots: make([]snapshotResponse, 0, len(snapshots)),
	}
	for _, s := range snapshots {
		response.Snapshots = append(response.Snapshots, toSnapshotResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/snapshots/{id}
func (h *SnapshotsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.store.Snapshots().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}

	writeJSON(w, http.StatusOK, toSnapshotResponse(s))
}

// delete handles DELETE /api/snapshots/{id}
func (h *SnapshotsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Snapshots().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete snapshot")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
