package sync

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tuido/internal/config"
)

// StateEntry records one task's sync association: the stable sync id, the
// match key it last synced under, the remote record id, and when it was
// last observed in a remote snapshot. Tasks never observed remotely have no
// entry, which is what protects them from deletion on pull.
type StateEntry struct {
	SyncID   string
	MatchKey string
	RemoteID string
	LastSeen time.Time
}

// StateStore persists sync state in a SQLite database in the XDG data
// directory, keyed per project.
type StateStore struct {
	db *sql.DB
}

// DefaultStatePath returns the standard location of the sync state database.
func DefaultStatePath() string {
	return filepath.Join(config.GetDataDir(), "sync.db")
}

// OpenState opens (creating if needed) the sync state database at path.
func OpenState(path string) (*StateStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	s := &StateStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// initSchema creates the state table if it doesn't exist.
func (s *StateStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sync_state (
			project TEXT NOT NULL,
			sync_id TEXT NOT NULL,
			match_key TEXT NOT NULL DEFAULT '',
			remote_id TEXT NOT NULL DEFAULT '',
			last_seen TEXT NOT NULL,
			PRIMARY KEY (project, sync_id)
		);

		CREATE INDEX IF NOT EXISTS idx_sync_state_project ON sync_state(project);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Entries returns all sync state for one project.
func (s *StateStore) Entries(ctx context.Context, project string) ([]StateEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT sync_id, match_key, remote_id, last_seen FROM sync_state WHERE project = ?",
		project,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []StateEntry
	for rows.Next() {
		var e StateEntry
		var seenStr string
		if err := rows.Scan(&e.SyncID, &e.MatchKey, &e.RemoteID, &seenStr); err != nil {
			return nil, err
		}
		e.LastSeen, _ = time.Parse(time.RFC3339Nano, seenStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkSeen upserts an entry, stamping the observation time.
func (s *StateStore) MarkSeen(ctx context.Context, project string, e StateEntry) error {
	seen := e.LastSeen
	if seen.IsZero() {
		seen = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (project, sync_id, match_key, remote_id, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project, sync_id) DO UPDATE SET
			match_key = excluded.match_key,
			remote_id = excluded.remote_id,
			last_seen = excluded.last_seen`,
		project, e.SyncID, e.MatchKey, e.RemoteID, seen.Format(time.RFC3339Nano),
	)
	return err
}

// Forget removes one entry.
func (s *StateStore) Forget(ctx context.Context, project, syncID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM sync_state WHERE project = ? AND sync_id = ?",
		project, syncID,
	)
	return err
}

// Close closes the underlying database.
func (s *StateStore) Close() error {
	return s.db.Close()
}

// stateIndex is the in-memory view of a project's state the diff consumes.
type stateIndex struct {
	bySyncID map[string]StateEntry
	seen     map[string]bool // sync ids previously observed remotely
}

func buildStateIndex(entries []StateEntry) stateIndex {
	idx := stateIndex{
		bySyncID: make(map[string]StateEntry, len(entries)),
		seen:     make(map[string]bool, len(entries)),
	}
	for _, e := range entries {
		idx.bySyncID[e.SyncID] = e
		if !e.LastSeen.IsZero() {
			idx.seen[e.SyncID] = true
		}
	}
	return idx
}
