package checkpoint

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/orion/flow"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	run_id     TEXT    NOT NULL,
	seq        INTEGER NOT NULL,
	created_at TEXT    NOT NULL,
	payload    BLOB    NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_run ON checkpoints (run_id, seq DESC);
`

// SQLiteStore persists checkpoints in a single SQLite database file.
// The pure-Go driver keeps the binary cgo-free.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	// Serialized writes; SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init checkpoint schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save implements flow.CheckpointStore.
func (s *SQLiteStore) Save(cp *flow.Checkpoint) error {
	var last sql.NullInt64
	err := s.db.QueryRow(
		`SELECT MAX(seq) FROM checkpoints WHERE run_id = ?`, cp.RunID,
	).Scan(&last)
	if err != nil {
		return err
	}
	if last.Valid && cp.Seq <= last.Int64 {
		return fmt.Errorf("%w: run %s already at seq %d, got %d",
			ErrSequenceConflict, cp.RunID, last.Int64, cp.Seq)
	}

	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO checkpoints (run_id, seq, created_at, payload) VALUES (?, ?, ?, ?)`,
		cp.RunID, cp.Seq, cp.CreatedAt.UTC().Format(time.RFC3339Nano), payload,
	)
	return err
}

// Latest implements flow.CheckpointStore.
func (s *SQLiteStore) Latest(runID string) (*flow.Checkpoint, error) {
	var payload []byte
	err := s.db.QueryRow(
		`SELECT payload FROM checkpoints WHERE run_id = ? ORDER BY seq DESC LIMIT 1`, runID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, flow.ErrNoCheckpoint)
	}
	if err != nil {
		return nil, err
	}
	cp, err := decodeCheckpoint(payload)
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return cp, nil
}

// List implements flow.CheckpointStore.
func (s *SQLiteStore) List(runID string) ([]*flow.Checkpoint, error) {
	rows, err := s.db.Query(
		`SELECT payload FROM checkpoints WHERE run_id = ? ORDER BY seq ASC`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*flow.Checkpoint
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		cp, err := decodeCheckpoint(payload)
		if err != nil {
			return nil, fmt.Errorf("decode checkpoint: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// Prune drops all but the newest keep checkpoints for the run.
func (s *SQLiteStore) Prune(runID string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	_, err := s.db.Exec(
		`DELETE FROM checkpoints WHERE run_id = ? AND seq NOT IN (
			SELECT seq FROM checkpoints WHERE run_id = ? ORDER BY seq DESC LIMIT ?
		)`, runID, runID, keep,
	)
	return err
}

// Runs returns all run ids present in the store.
func (s *SQLiteStore) Runs() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT run_id FROM checkpoints ORDER BY run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}
