package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Snapshots table - one located hand per row
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL DEFAULT '',
			hand_index INTEGER NOT NULL,
			handedness TEXT NOT NULL DEFAULT '',
			score REAL NOT NULL DEFAULT 0,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			min_x INTEGER NOT NULL,
			min_y INTEGER NOT NULL,
			max_x INTEGER NOT NULL,
			max_y INTEGER NOT NULL,
			fingers TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Snapshot landmarks table - pixel landmarks in skeleton order
		`CREATE TABLE IF NOT EXISTS snapshot_landmarks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			landmark_index INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshot_landmarks_snapshot_id ON snapshot_landmarks(snapshot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
