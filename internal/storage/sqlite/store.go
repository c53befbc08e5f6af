// Package sqlite implements the storage interfaces on a local SQLite
// database with embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lukeharby/wildspace/internal/platform/storage/sqlitemigrate"
	"github.com/lukeharby/wildspace/internal/storage"
	"github.com/lukeharby/wildspace/internal/storage/sqlite/migrations"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis reverses toMillis for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store provides a SQLite-backed store implementing SceneStore and
// EventJournal.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) a SQLite scene store at the provided
// path and applies embedded migrations.
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The store is shared by every scene session in the process; a single
	// connection sidesteps SQLITE_BUSY on concurrent writers.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
//
// Close is nil-safe so callers can defer it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutScene inserts or replaces a scene snapshot.
func (s *Store) PutScene(ctx context.Context, record storage.SceneRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO scenes (id, owner_id, title, snapshot, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    owner_id = excluded.owner_id,
    title = excluded.title,
    snapshot = excluded.snapshot,
    updated_at = excluded.updated_at`,
		record.ID, record.OwnerID, record.Title, record.Snapshot,
		toMillis(record.CreatedAt), toMillis(record.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put scene %d: %w", record.ID, err)
	}
	return nil
}

// GetScene returns the snapshot for the given scene id, or ErrNotFound.
func (s *Store) GetScene(ctx context.Context, id int64) (storage.SceneRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, owner_id, title, snapshot, created_at, updated_at
FROM scenes WHERE id = ?`, id)

	var record storage.SceneRecord
	var createdAt, updatedAt int64
	err := row.Scan(&record.ID, &record.OwnerID, &record.Title, &record.Snapshot, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.SceneRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.SceneRecord{}, fmt.Errorf("get scene %d: %w", id, err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// ListScenesByOwner returns the scenes owned by a user, newest first.
func (s *Store) ListScenesByOwner(ctx context.Context, ownerID int64) ([]storage.SceneRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, owner_id, title, snapshot, created_at, updated_at
FROM scenes WHERE owner_id = ? ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list scenes for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	var records []storage.SceneRecord
	for rows.Next() {
		var record storage.SceneRecord
		var createdAt, updatedAt int64
		if err := rows.Scan(&record.ID, &record.OwnerID, &record.Title, &record.Snapshot, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan scene row: %w", err)
		}
		record.CreatedAt = fromMillis(createdAt)
		record.UpdatedAt = fromMillis(updatedAt)
		records = append(records, record)
	}
	return records, rows.Err()
}

// AppendEvent appends the event to the scene's journal, assigning the
// next sequence number.
func (s *Store) AppendEvent(ctx context.Context, record storage.EventRecord) (uint64, error) {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append event: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq uint64
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM scene_events WHERE scene_id = ?`, record.SceneID)
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("append event: next seq: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO scene_events (scene_id, seq, type, payload, actor_id, timestamp)
VALUES (?, ?, ?, ?, ?, ?)`,
		record.SceneID, seq, record.Type, record.Payload, record.ActorID,
		toMillis(record.Timestamp)); err != nil {
		return 0, fmt.Errorf("append event: insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append event: commit: %w", err)
	}
	return seq, nil
}

// ListEvents returns up to limit events after afterSeq in ascending order.
func (s *Store) ListEvents(ctx context.Context, sceneID int64, afterSeq uint64, limit int) ([]storage.EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT scene_id, seq, type, payload, actor_id, timestamp
FROM scene_events WHERE scene_id = ? AND seq > ?
ORDER BY seq ASC LIMIT ?`, sceneID, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("list events for scene %d: %w", sceneID, err)
	}
	defer rows.Close()

	var records []storage.EventRecord
	for rows.Next() {
		var record storage.EventRecord
		var ts int64
		if err := rows.Scan(&record.SceneID, &record.Seq, &record.Type, &record.Payload, &record.ActorID, &ts); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		record.Timestamp = fromMillis(ts)
		records = append(records, record)
	}
	return records, rows.Err()
}
