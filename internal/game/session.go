package game

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lukeharby/wildspace/internal/perms"
	"github.com/lukeharby/wildspace/internal/scene"
	"github.com/lukeharby/wildspace/internal/storage"
)

const (
	// autosaveInterval bounds how much applied work a crash can lose.
	autosaveInterval = 10 * time.Second
	// teardownTimeout caps the final snapshot write on shutdown.
	teardownTimeout = 5 * time.Second
)

type joinRequest struct {
	client *Client
	role   perms.Role
	// seated is closed once the loop has registered the client.
	seated chan struct{}
}

type leaveRequest struct {
	key string
}

type clientFrame struct {
	key  string
	data []byte
}

// Session serializes all traffic for one scene. Every mutating call goes
// through the inbox and is processed by the single Run goroutine, so the
// Game and its Scene need no internal locking.
type Session struct {
	sceneID int64
	ownerID int64
	game    *Game

	store   storage.SceneStore
	journal storage.EventJournal
	tracer  trace.Tracer

	inbox   chan any
	done    chan struct{}
	onEmpty func(sceneID int64)

	clients map[string]*Client
	seen    bool
	dirty   bool
}

// NewSession wires a session around an authoritative game. store and
// journal may be nil for in-memory scenes. onEmpty, if set, is called
// after the loop stops because the last client left.
func NewSession(sceneID int64, g *Game, store storage.SceneStore, journal storage.EventJournal, onEmpty func(sceneID int64)) *Session {
	return &Session{
		sceneID: sceneID,
		ownerID: ownerOf(g),
		game:    g,
		store:   store,
		journal: journal,
		tracer:  otel.Tracer("wildspace/game"),
		inbox:   make(chan any, 128),
		done:    make(chan struct{}),
		clients: map[string]*Client{},
		onEmpty: onEmpty,
	}
}

func ownerOf(g *Game) int64 {
	// The owner is whoever Game.New granted the owner role; sessions are
	// constructed right after, so scan once.
	return g.Perms.Owner()
}

// Join registers a connected client and seeds its role. The client
// receives its user notice and a full scene snapshot as its first frames.
// A false return means the loop has stopped without seating the client;
// the caller must acquire a fresh session and must not reuse the client
// elsewhere, since a seated client's outbox is closed on teardown.
func (s *Session) Join(client *Client, role perms.Role) bool {
	req := joinRequest{client: client, role: role, seated: make(chan struct{})}
	select {
	case s.inbox <- req:
	case <-s.done:
		return false
	}
	select {
	case <-req.seated:
		return true
	case <-s.done:
		// The loop may have seated the client and stopped before we
		// observed it.
		select {
		case <-req.seated:
			return true
		default:
			return false
		}
	}
}

// Leave drops a client. The last leave tears the session down.
func (s *Session) Leave(key string) {
	s.post(leaveRequest{key: key})
}

// Handle submits one raw client frame for sequential processing.
func (s *Session) Handle(key string, data []byte) {
	s.post(clientFrame{key: key, data: data})
}

// Done is closed when the session loop has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) post(msg any) {
	select {
	case s.inbox <- msg:
	case <-s.done:
	}
}

// Run drains the inbox until the context is cancelled or the last client
// leaves. It is the single serialization point for the scene.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(autosaveInterval)
	defer ticker.Stop()
	defer s.teardown()

	for {
		select {
		case msg := <-s.inbox:
			switch msg := msg.(type) {
			case joinRequest:
				s.handleJoin(ctx, msg)
			case leaveRequest:
				s.handleLeave(ctx, msg.key)
			case clientFrame:
				s.handleFrame(ctx, msg)
			}
			// Backed up clients are dropped during frame handling, so any
			// message can empty the session, not just a leave.
			if s.seen && len(s.clients) == 0 {
				return
			}
		case <-ticker.C:
			s.save(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) teardown() {
	// Closing done first lets callers racing a Join fail fast instead of
	// waiting out the final snapshot write.
	close(s.done)
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	s.save(ctx)
	for _, c := range s.clients {
		c.close()
	}
	s.clients = map[string]*Client{}
	if s.onEmpty != nil {
		s.onEmpty(s.sceneID)
	}
}

func (s *Session) handleJoin(ctx context.Context, req joinRequest) {
	s.clients[req.client.Key] = req.client
	s.seen = true
	close(req.seated)

	// A returning user keeps their higher role; a grant never demotes.
	if req.role > s.game.Perms.Role(req.client.UserID) {
		s.game.Perms.SetRole(req.client.UserID, req.role)
	}
	role := s.game.Perms.Role(req.client.UserID)

	if frame, err := encodeUserMessage(req.client.UserID, role.String()); err == nil {
		req.client.deliver(frame)
	}
	snapshot, err := s.game.Scene.Export()
	if err != nil {
		log.Printf("scene %d: export for join: %v", s.sceneID, err)
		return
	}
	if frame, err := encodeReplaceMessage(snapshot); err == nil {
		req.client.deliver(frame)
	}
}

func (s *Session) handleLeave(ctx context.Context, key string) {
	if c, ok := s.clients[key]; ok {
		delete(s.clients, key)
		c.close()
	}
}

func (s *Session) handleFrame(ctx context.Context, frame clientFrame) {
	client, ok := s.clients[frame.key]
	if !ok {
		return
	}
	msg, ev, err := DecodeClientMessage(frame.data)
	if err != nil {
		log.Printf("scene %d: bad frame from %s: %v", s.sceneID, frame.key, err)
		return
	}

	ctx, span := s.tracer.Start(ctx, "game.handle_event",
		trace.WithAttributes(
			attribute.Int64("scene.id", s.sceneID),
			attribute.Int64("user.id", client.UserID),
			attribute.String("event.type", string(ev.EventType())),
		))
	defer span.End()

	ack, applied := s.game.HandleEvent(client.UserID, ev)
	span.SetAttributes(attribute.Bool("event.applied", applied))

	if ackFrame, err := encodeAckMessage(msg.ID, ack); err == nil {
		if !client.deliver(ackFrame) {
			s.dropClient(frame.key)
		}
	}
	if !applied {
		return
	}
	s.dirty = true

	// Rewrite client-minted ids to the canonical ones before the event
	// reaches peers; peers only ever see canonical identities.
	patchEvent(ev, ack)
	s.appendJournal(ctx, client.UserID, ev)
	s.broadcast(ev, frame.key)
}

// broadcast fans an applied event out to every client except the
// originator, which reconciles through its ack instead. A client whose
// outbox cannot take the frame is dropped: silently skipping it would
// leave its replica behind the authoritative scene for good.
func (s *Session) broadcast(ev scene.SceneEvent, exclude string) {
	frame, err := encodeUpdateMessage(ev)
	if err != nil {
		log.Printf("scene %d: encode broadcast: %v", s.sceneID, err)
		return
	}
	var backedUp []string
	for key, c := range s.clients {
		if key == exclude {
			continue
		}
		if !c.deliver(frame) {
			backedUp = append(backedUp, key)
		}
	}
	for _, key := range backedUp {
		s.dropClient(key)
	}
}

// dropClient disconnects a client that cannot keep up. Closing the
// outbox ends its write pump, so the peer reconnects and resyncs from a
// fresh snapshot instead of drifting out of sync.
func (s *Session) dropClient(key string) {
	c, ok := s.clients[key]
	if !ok {
		return
	}
	delete(s.clients, key)
	c.close()
	log.Printf("scene %d: client %s backed up, dropping", s.sceneID, key)
}

// patchEvent rewrites the ids inside a create event to the canonical
// identity its ack assigned.
func patchEvent(ev scene.SceneEvent, ack scene.SceneEventAck) {
	switch ack := ack.(type) {
	case *scene.AckLayerCreate:
		if create, ok := ev.(*scene.LayerCreate); ok {
			create.ID = ack.Canonical
			create.Z = ack.Z
		}
	case *scene.AckSpriteCreate:
		if create, ok := ev.(*scene.SpriteCreate); ok {
			create.Sprite.ID = ack.Canonical
			create.Sprite.Canonical = ack.Canonical
		}
	case *scene.AckGroupCreate:
		if create, ok := ev.(*scene.GroupCreate); ok {
			create.ID = ack.Canonical
		}
	}
}

func (s *Session) appendJournal(ctx context.Context, actor int64, ev scene.SceneEvent) {
	if s.journal == nil {
		return
	}
	payload, err := scene.EncodeEvent(ev)
	if err != nil {
		log.Printf("scene %d: encode journal event: %v", s.sceneID, err)
		return
	}
	if _, err := s.journal.AppendEvent(ctx, storage.EventRecord{
		SceneID: s.sceneID,
		Type:    string(ev.EventType()),
		Payload: payload,
		ActorID: actor,
	}); err != nil {
		log.Printf("scene %d: append journal: %v", s.sceneID, err)
	}
}

// save snapshots the scene when any event has been applied since the
// last write.
func (s *Session) save(ctx context.Context) {
	if !s.dirty || s.store == nil {
		return
	}
	snapshot, err := s.game.Scene.Export()
	if err != nil {
		log.Printf("scene %d: export: %v", s.sceneID, err)
		return
	}
	if err := s.store.PutScene(ctx, storage.SceneRecord{
		ID:        s.sceneID,
		OwnerID:   s.ownerID,
		Title:     s.game.Scene.Title,
		Snapshot:  snapshot,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		log.Printf("scene %d: save: %v", s.sceneID, err)
		return
	}
	s.dirty = false
}
