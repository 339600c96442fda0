package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Landmark is a stored pixel landmark.
type Landmark struct {
	Index int
	X     int
	Y     int
}

// Box is a stored bounding box.
type Box struct {
	MinX, MinY, MaxX, MaxY int
}

// Snapshot is one located hand recorded from a frame.
type Snapshot struct {
	ID         string
	Label      string
	HandIndex  int
	Handedness string
	Score      float64
	Width      int
	Height     int
	Box        Box
	Fingers    []int
	Landmarks  []Landmark
	CreatedAt  time.Time
}

// SnapshotRepository provides CRUD operations for snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// Snapshots returns the snapshot repository for this store.
func (s *Store) Snapshots() *SnapshotRepository {
	return &SnapshotRepository{db: s.db}
}

// Create inserts a snapshot and its landmarks in a single transaction.
func (r *SnapshotRepository) Create(snap *Snapshot) error {
	if snap.ID == "" {
		return errors.New("snapshot id is required")
	}
	snap.CreatedAt = time.Now()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO snapshots (id, label, hand_index, handedness, score, width, height,
		                        min_x, min_y, max_x, max_y, fingers, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Label, snap.HandIndex, snap.Handedness, snap.Score, snap.Width, snap.Height,
		snap.Box.MinX, snap.Box.MinY, snap.Box.MaxX, snap.Box.MaxY,
		encodeFingers(snap.Fingers), snap.CreatedAt,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO snapshot_landmarks (snapshot_id, landmark_index, x, y) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, lm := range snap.Landmarks {
		if _, err := stmt.Exec(snap.ID, lm.Index, lm.X, lm.Y); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves a snapshot with its landmarks.
func (r *SnapshotRepository) GetByID(id string) (*Snapshot, error) {
	snap, err := scanSnapshot(r.db.QueryRow(
		`SELECT id, label, hand_index, handedness, score, width, height,
		        min_x, min_y, max_x, max_y, fingers, created_at
		 FROM snapshots WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	snap.Landmarks, err = r.landmarks(id)
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// List retrieves the most recent snapshots, newest first, without landmarks.
// A limit of zero or less returns every snapshot.
func (r *SnapshotRepository) List(limit int) ([]*Snapshot, error) {
	query := `SELECT id, label, hand_index, handedness, score, width, height,
	                 min_x, min_y, max_x, max_y, fingers, created_at
	          FROM snapshots ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// Delete removes a snapshot and, by cascade, its landmarks.
func (r *SnapshotRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *SnapshotRepository) landmarks(id string) ([]Landmark, error) {
	rows, err := r.db.Query(
		`SELECT landmark_index, x, y FROM snapshot_landmarks
		 WHERE snapshot_id = ? ORDER BY landmark_index`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var landmarks []Landmark
	for rows.Next() {
		var lm Landmark
		if err := rows.Scan(&lm.Index, &lm.X, &lm.Y); err != nil {
			return nil, err
		}
		landmarks = append(landmarks, lm)
	}

	return landmarks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	snap := &Snapshot{}
	var fingers string

	err := row.Scan(
		&snap.ID, &snap.Label, &snap.HandIndex, &snap.Handedness, &snap.Score,
		&snap.Width, &snap.Height,
		&snap.Box.MinX, &snap.Box.MinY, &snap.Box.MaxX, &snap.Box.MaxY,
		&fingers, &snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	snap.Fingers, err = decodeFingers(fingers)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}

	return snap, nil
}

// encodeFingers stores finger flags as a string of 0 and 1 digits.
func encodeFingers(fingers []int) string {
	var b strings.Builder
	for _, f := range fingers {
		if f != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func decodeFingers(s string) ([]int, error) {
	fingers := make([]int, 0, len(s))
	for _, c := range s {
		switch c {
		case '0':
			fingers = append(fingers, 0)
		case '1':
			fingers = append(fingers, 1)
		default:
			return nil, fmt.Errorf("invalid finger flag %q", c)
		}
	}
	return fingers, nil
}
