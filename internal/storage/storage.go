// Package storage defines the persistence boundary for scene state.
// Stores snapshot full scene exports and append applied events to a
// per-scene journal; they never interpret scene semantics.
package storage

import (
	"context"
	"time"

	apperrors "github.com/lukeharby/wildspace/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between a legitimately new scene and
// a storage failure.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// SceneRecord captures one persisted scene snapshot.
type SceneRecord struct {
	ID      int64
	OwnerID int64
	Title   string
	// Snapshot is the scene's full-state export. Storage treats it as an
	// opaque blob so it can restore a scene without replaying the journal.
	Snapshot  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SceneStore persists scene snapshots.
type SceneStore interface {
	// PutScene inserts or replaces a scene snapshot.
	PutScene(ctx context.Context, record SceneRecord) error
	// GetScene returns the snapshot for the given scene id, or ErrNotFound.
	GetScene(ctx context.Context, id int64) (SceneRecord, error)
	// ListScenesByOwner returns the scenes owned by a user, newest first.
	ListScenesByOwner(ctx context.Context, ownerID int64) ([]SceneRecord, error)
}

// EventRecord captures one applied scene event in the journal.
type EventRecord struct {
	SceneID int64
	// Seq is the event sequence number within the scene (starts at 1).
	// Assigned by storage on append.
	Seq       uint64
	Type      string
	Payload   []byte
	ActorID   int64
	Timestamp time.Time
}

// EventJournal appends and reads the per-scene event journal. The journal
// is an audit trail; restoring a scene uses snapshots, not replay.
type EventJournal interface {
	// AppendEvent appends the event and returns its assigned sequence.
	AppendEvent(ctx context.Context, record EventRecord) (uint64, error)
	// ListEvents returns up to limit events with Seq greater than
	// afterSeq, in ascending order.
	ListEvents(ctx context.Context, sceneID int64, afterSeq uint64, limit int) ([]EventRecord, error)
}
