package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lukeharby/wildspace/internal/auth"
	"github.com/lukeharby/wildspace/internal/perms"
	apperrors "github.com/lukeharby/wildspace/internal/platform/errors"
	"github.com/lukeharby/wildspace/internal/scene"
	"github.com/lukeharby/wildspace/internal/storage"
)

// Registry owns the live sessions of this process, one per active scene.
// It loads snapshots on first join and removes sessions when they drain.
type Registry struct {
	store   storage.SceneStore
	journal storage.EventJournal

	mu       sync.Mutex
	sessions map[int64]*Session
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	closed   bool
}

// NewRegistry creates a registry whose sessions stop when Shutdown is
// called.
func NewRegistry(store storage.SceneStore, journal storage.EventJournal) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		store:    store,
		journal:  journal,
		sessions: map[int64]*Session{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Session returns the running session for the grant's scene, starting one
// from storage if needed. A scene that does not exist yet is created on
// the fly when the grant carries the owner role; other roles get
// storage.ErrNotFound so a typo in a scene id cannot mint state.
func (r *Registry) Session(ctx context.Context, grant auth.Grant) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, apperrors.New(apperrors.CodeSessionClosed, "session registry is shut down")
	}
	if s, ok := r.sessions[grant.SceneID]; ok {
		select {
		case <-s.Done():
			// Drained between lookups; fall through and start fresh.
		default:
			return s, nil
		}
	}

	sc, err := r.loadScene(ctx, grant)
	if err != nil {
		return nil, err
	}
	g := New(sc, grant.UserID)
	session := NewSession(grant.SceneID, g, r.store, r.journal, r.remove)
	r.sessions[grant.SceneID] = session
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		session.Run(r.ctx)
	}()
	return session, nil
}

func (r *Registry) loadScene(ctx context.Context, grant auth.Grant) (*scene.Scene, error) {
	if r.store == nil {
		return scene.New(), nil
	}
	record, err := r.store.GetScene(ctx, grant.SceneID)
	if errors.Is(err, storage.ErrNotFound) {
		if grant.Role != perms.RoleOwner {
			return nil, storage.ErrNotFound
		}
		sc := scene.New()
		sc.ID = scene.Id(grant.SceneID)
		return sc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load scene %d: %w", grant.SceneID, err)
	}
	sc, err := scene.Import(record.Snapshot)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSceneSnapshotBad, fmt.Sprintf("load scene %d", grant.SceneID), err)
	}
	return sc, nil
}

// Join attaches the client to the grant's scene session. A session can
// drain between lookup and join; when that happens the stopped session
// is replaced on the next lookup, so the retry terminates.
func (r *Registry) Join(ctx context.Context, grant auth.Grant, client *Client) (*Session, error) {
	for {
		s, err := r.Session(ctx, grant)
		if err != nil {
			return nil, err
		}
		if s.Join(client, grant.Role) {
			return s, nil
		}
	}
}

// remove drops a drained session; registered as the session's onEmpty
// callback. The registered session may already be a fresh replacement,
// which must survive.
func (r *Registry) remove(sceneID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sceneID]
	if !ok {
		return
	}
	select {
	case <-s.Done():
		delete(r.sessions, sceneID)
	default:
	}
}

// Shutdown stops every session and waits for their final snapshots.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
}
