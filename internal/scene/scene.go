// Package scene implements the synchronized tabletop scene aggregate:
// layers of sprites, sprite groups, the closed SceneEvent command set that
// replicates every mutation, the acknowledgment protocol that reconciles
// client-minted local ids with server-assigned canonical ids, and exact
// event inversion for undo.
//
// A scene is either authoritative (the single server replica, which
// assigns canonical ids) or speculative (a client replica that mints
// negative local ids and reconciles them later through acks). All methods
// assume the caller serializes access; per-scene sequencing lives in the
// game session, not here.
package scene

import (
	"encoding/json"
	"fmt"
)

const defaultSize = 32

// Scene is the aggregate root for one tabletop scene.
//
// Layers is kept in stack order, top first by strictly descending z.
// Callers may read Layers and Groups for rendering and persistence but
// must not mutate them; every mutation goes through a method that returns
// the replication event.
type Scene struct {
	ID     Id            `json:"id,omitempty"`
	Title  string        `json:"title,omitempty"`
	W      int           `json:"w"`
	H      int           `json:"h"`
	Layers []*Layer      `json:"layers"`
	Groups map[Id]*Group `json:"groups,omitempty"`

	authoritative bool
	nextLocal     Id
	nextCanonical Id
}

// New creates a speculative scene with the default layer stack.
func New() *Scene {
	s := &Scene{
		W:             defaultSize,
		H:             defaultSize,
		Groups:        map[Id]*Group{},
		nextCanonical: 1,
	}
	for _, l := range []struct {
		title string
		z     int
	}{
		{"Foreground", 1},
		{"Scenery", -1},
		{"Background", -2},
	} {
		layer := NewLayer(s.mintLocal(), l.title, l.z)
		s.Layers = append(s.Layers, &layer)
	}
	sortLayers(s.Layers)
	return s
}

// Authoritative reports whether this replica assigns canonical ids.
func (s *Scene) Authoritative() bool {
	return s.authoritative
}

func (s *Scene) mintLocal() Id {
	s.nextLocal--
	return s.nextLocal
}

func (s *Scene) allocCanonical() Id {
	id := s.nextCanonical
	s.nextCanonical++
	return id
}

// mintID returns a fresh id for a locally authored entity: canonical on
// the authoritative replica, local elsewhere.
func (s *Scene) mintID() Id {
	if s.authoritative {
		return s.allocCanonical()
	}
	return s.mintLocal()
}

// Layer returns the layer at the given stack index (0 is topmost), or nil
// when the index is out of range.
func (s *Scene) Layer(index int) *Layer {
	if index < 0 || index >= len(s.Layers) {
		return nil
	}
	return s.Layers[index]
}

// LayerByID returns the layer currently addressed by id, or nil.
func (s *Scene) LayerByID(id Id) *Layer {
	i := s.layerIndex(id)
	if i < 0 {
		return nil
	}
	return s.Layers[i]
}

func (s *Scene) layerIndex(id Id) int {
	for i, l := range s.Layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Group returns the group currently addressed by id, or nil.
func (s *Scene) Group(id Id) *Group {
	return s.Groups[id]
}

// Sprite returns the sprite currently addressed by id and the layer
// holding it, or nils.
func (s *Scene) Sprite(id Id) (*Sprite, *Layer) {
	for _, l := range s.Layers {
		if sp := l.Sprite(id); sp != nil {
			return sp, l
		}
	}
	return nil, nil
}

// zTaken reports whether any layer occupies z.
func (s *Scene) zTaken(z int) bool {
	for _, l := range s.Layers {
		if l.Z == z {
			return true
		}
	}
	return false
}

// freeZ returns z if unoccupied, otherwise the nearest free value above
// the current stack. Zero is reserved for the grid.
func (s *Scene) freeZ(z int) int {
	if z != 0 && !s.zTaken(z) {
		return z
	}
	top := 0
	for _, l := range s.Layers {
		if l.Z > top {
			top = l.Z
		}
	}
	return top + 1
}

// AddLayer creates a new layer at the requested z, bumping it above the
// stack when the value is taken. The returned event replicates the
// creation.
func (s *Scene) AddLayer(title string, z int) (*Layer, *LayerCreate) {
	layer := NewLayer(s.mintID(), title, s.freeZ(z))
	if layer.ID.Canonical() {
		layer.Canonical = layer.ID
	}
	l := &layer
	s.Layers = append(s.Layers, l)
	sortLayers(s.Layers)
	return l, &LayerCreate{ID: l.ID, Title: l.Title, Z: l.Z}
}

// RemoveLayer deletes the layer addressed by id, returning the inversion-
// complete event, or nil for unknown ids.
func (s *Scene) RemoveLayer(id Id) *LayerRemove {
	i := s.layerIndex(id)
	if i < 0 {
		return nil
	}
	removed := *s.Layers[i]
	s.Layers = append(s.Layers[:i], s.Layers[i+1:]...)
	return &LayerRemove{ID: id, Index: i, Removed: removed}
}

// AddSprite places a new sprite on the layer addressed by layerID.
func (s *Scene) AddSprite(layerID Id, texture string, rect Rect) (*Sprite, *SpriteCreate) {
	l := s.LayerByID(layerID)
	if l == nil {
		return nil, nil
	}
	sp := Sprite{ID: s.mintID(), Texture: texture, Rect: rect}
	if sp.ID.Canonical() {
		sp.Canonical = sp.ID
	}
	l.addSprite(sp)
	return l.Sprite(sp.ID), &SpriteCreate{Sprite: sp, Layer: l.ID}
}

// RemoveSprite deletes the sprite addressed by id, returning the
// inversion-complete event, or nil for unknown ids.
func (s *Scene) RemoveSprite(id Id) *SpriteRemove {
	_, l := s.Sprite(id)
	if l == nil {
		return nil
	}
	removed, index, _ := l.takeSprite(id)
	return &SpriteRemove{ID: id, Layer: l.ID, Index: index, Removed: removed}
}

// MoveSprite moves or resizes the sprite addressed by id, returning the
// event, or nil when the sprite is unknown or the rect unchanged.
func (s *Scene) MoveSprite(id Id, to Rect) *SpriteMove {
	sp, _ := s.Sprite(id)
	if sp == nil {
		return nil
	}
	return sp.SetRect(to)
}

// SetSpriteLayer moves the sprite addressed by id onto another layer.
func (s *Scene) SetSpriteLayer(id Id, layerID Id) *SpriteLayer {
	sp, from := s.Sprite(id)
	to := s.LayerByID(layerID)
	if sp == nil || to == nil || from == to {
		return nil
	}
	moved, _, _ := from.takeSprite(id)
	to.addSprite(moved)
	return &SpriteLayer{ID: id, From: from.ID, To: to.ID}
}

// CreateGroup creates a group over the given sprite ids.
func (s *Scene) CreateGroup(sprites []Id) (*Group, *GroupCreate) {
	g := NewGroup(s.mintID(), sprites)
	s.Groups[g.ID] = g
	return g, &GroupCreate{ID: g.ID, Sprites: append([]Id(nil), g.Sprites...)}
}

// DeleteGroup deletes the group addressed by id, returning the
// inversion-complete event, or nil for unknown ids.
func (s *Scene) DeleteGroup(id Id) *GroupDelete {
	g := s.Groups[id]
	if g == nil {
		return nil
	}
	delete(s.Groups, id)
	return &GroupDelete{ID: id, Sprites: append([]Id(nil), g.Sprites...)}
}

// SetTitle retitles the scene, returning the event, or nil when
// unchanged.
func (s *Scene) SetTitle(title string) *SceneTitle {
	if s.Title == title {
		return nil
	}
	old := s.Title
	s.Title = title
	return &SceneTitle{Old: old, New: title}
}

// SetDimensions resizes the scene grid.
func (s *Scene) SetDimensions(w, h int) *SceneDimensions {
	if s.W == w && s.H == h {
		return nil
	}
	ev := &SceneDimensions{OldW: s.W, OldH: s.H, NewW: w, NewH: h}
	s.W, s.H = w, h
	return ev
}

// stackZs captures every layer's z in current stack order.
func (s *Scene) stackZs() []LayerZ {
	zs := make([]LayerZ, len(s.Layers))
	for i, l := range s.Layers {
		zs[i] = LayerZ{Layer: l.ID, Z: l.Z}
	}
	return zs
}

func zsEqual(a, b []LayerZ) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// lowerLayer moves the layer at stack index i to the bottom and renumbers
// the whole stack to a contiguous descending sequence starting at -1.
func (s *Scene) lowerLayer(i int) {
	l := s.Layers[i]
	s.Layers = append(s.Layers[:i], s.Layers[i+1:]...)
	s.Layers = append(s.Layers, l)
	for idx, layer := range s.Layers {
		layer.Z = -(idx + 1)
	}
}

// raiseLayer moves the layer at stack index i to the top and renumbers
// the whole stack to a contiguous ascending sequence ending at 1 at the
// bottom.
func (s *Scene) raiseLayer(i int) {
	l := s.Layers[i]
	s.Layers = append(s.Layers[:i], s.Layers[i+1:]...)
	s.Layers = append([]*Layer{l}, s.Layers...)
	n := len(s.Layers)
	for idx, layer := range s.Layers {
		layer.Z = n - idx
	}
}

// LowerLayer sends the layer addressed by id to the bottom of the stack.
// The returned event records every layer's prior z so unwinding restores
// the previous arrangement exactly. Returns nil for unknown ids or when
// the stack is already in the target arrangement.
func (s *Scene) LowerLayer(id Id) *LayerLower {
	i := s.layerIndex(id)
	if i < 0 {
		return nil
	}
	restore := s.stackZs()
	s.lowerLayer(i)
	if zsEqual(restore, s.stackZs()) {
		return nil
	}
	return &LayerLower{ID: id, Restore: restore}
}

// RaiseLayer brings the layer addressed by id to the top of the stack,
// the structural mirror of LowerLayer.
func (s *Scene) RaiseLayer(id Id) *LayerRaise {
	i := s.layerIndex(id)
	if i < 0 {
		return nil
	}
	restore := s.stackZs()
	s.raiseLayer(i)
	if zsEqual(restore, s.stackZs()) {
		return nil
	}
	return &LayerRaise{ID: id, Restore: restore}
}

// restoreZs reinstates the z values recorded by a reorder event. Stack
// order follows from z, so setting the values and resorting restores the
// previous arrangement bit for bit.
func (s *Scene) restoreZs(zs []LayerZ) {
	for _, entry := range zs {
		if l := s.LayerByID(entry.Layer); l != nil {
			l.Z = entry.Z
		}
	}
	sortLayers(s.Layers)
}

// ApplyEvent validates and applies one event, mutating the scene in
// place.
//
// The returned ack carries the outcome for the originating client: an
// identity ack when the event created an entity under a local id on the
// authoritative replica, AckRejection when the event referenced unknown
// state and was dropped, AckApproval otherwise. changed reports whether
// any observable state was altered; idempotent re-delivery returns
// approval with changed false.
//
// Unknown ids are a routine race with remote deletions, never an error.
func (s *Scene) ApplyEvent(ev SceneEvent) (ack SceneEventAck, changed bool) {
	switch ev := ev.(type) {
	case *LayerCreate:
		if s.LayerByID(ev.ID) != nil {
			return AckRejection{}, false
		}
		layer := NewLayer(ev.ID, ev.Title, s.freeZ(ev.Z))
		if s.authoritative && ev.ID.Local() {
			layer.ID = s.allocCanonical()
		}
		if layer.ID.Canonical() {
			layer.Canonical = layer.ID
			if layer.ID >= s.nextCanonical {
				s.nextCanonical = layer.ID + 1
			}
		}
		s.Layers = append(s.Layers, &layer)
		sortLayers(s.Layers)
		if s.authoritative && ev.ID.Local() {
			return &AckLayerCreate{Local: ev.ID, Canonical: layer.ID, Z: layer.Z}, true
		}
		return AckApproval{}, true

	case *LayerRemove:
		i := s.layerIndex(ev.ID)
		if i < 0 {
			return AckRejection{}, false
		}
		s.Layers = append(s.Layers[:i], s.Layers[i+1:]...)
		return AckApproval{}, true

	case *LayerRename:
		l := s.LayerByID(ev.ID)
		if l == nil {
			return AckRejection{}, false
		}
		if l.Title == ev.New {
			return AckApproval{}, false
		}
		l.Title = ev.New
		return AckApproval{}, true

	case *LayerVisibility:
		l := s.LayerByID(ev.ID)
		if l == nil {
			return AckRejection{}, false
		}
		if l.Visible == ev.Visible {
			return AckApproval{}, false
		}
		l.Visible = ev.Visible
		return AckApproval{}, true

	case *LayerLocked:
		l := s.LayerByID(ev.ID)
		if l == nil {
			return AckRejection{}, false
		}
		if l.Locked == ev.Locked {
			return AckApproval{}, false
		}
		l.Locked = ev.Locked
		return AckApproval{}, true

	case *LayerLower:
		i := s.layerIndex(ev.ID)
		if i < 0 {
			return AckRejection{}, false
		}
		before := s.stackZs()
		s.lowerLayer(i)
		return AckApproval{}, !zsEqual(before, s.stackZs())

	case *LayerRaise:
		i := s.layerIndex(ev.ID)
		if i < 0 {
			return AckRejection{}, false
		}
		before := s.stackZs()
		s.raiseLayer(i)
		return AckApproval{}, !zsEqual(before, s.stackZs())

	case *SpriteCreate:
		l := s.LayerByID(ev.Layer)
		if l == nil {
			return AckRejection{}, false
		}
		if sp, _ := s.Sprite(ev.Sprite.ID); sp != nil {
			return AckRejection{}, false
		}
		sprite := ev.Sprite
		if s.authoritative && sprite.ID.Local() {
			local := sprite.ID
			sprite.ID = s.allocCanonical()
			sprite.Canonical = sprite.ID
			l.addSprite(sprite)
			return &AckSpriteCreate{Local: local, Canonical: sprite.ID}, true
		}
		if sprite.ID.Canonical() {
			sprite.Canonical = sprite.ID
			if sprite.ID >= s.nextCanonical {
				s.nextCanonical = sprite.ID + 1
			}
		}
		l.addSprite(sprite)
		return AckApproval{}, true

	case *SpriteRemove:
		_, l := s.Sprite(ev.ID)
		if l == nil {
			return AckRejection{}, false
		}
		l.takeSprite(ev.ID)
		return AckApproval{}, true

	case *SpriteMove:
		sp, _ := s.Sprite(ev.ID)
		if sp == nil {
			return AckRejection{}, false
		}
		if sp.Rect == ev.To {
			return AckApproval{}, false
		}
		sp.Rect = ev.To
		return AckApproval{}, true

	case *SpriteTexture:
		sp, _ := s.Sprite(ev.ID)
		if sp == nil {
			return AckRejection{}, false
		}
		if sp.Texture == ev.New {
			return AckApproval{}, false
		}
		sp.Texture = ev.New
		return AckApproval{}, true

	case *SpriteLayer:
		sp, from := s.Sprite(ev.ID)
		to := s.LayerByID(ev.To)
		if sp == nil || to == nil {
			return AckRejection{}, false
		}
		if from == to {
			return AckApproval{}, false
		}
		moved, _, _ := from.takeSprite(ev.ID)
		to.addSprite(moved)
		return AckApproval{}, true

	case *GroupCreate:
		if s.Groups[ev.ID] != nil {
			return AckRejection{}, false
		}
		g := NewGroup(ev.ID, ev.Sprites)
		if s.authoritative && ev.ID.Local() {
			g.ID = s.allocCanonical()
			s.Groups[g.ID] = g
			return &AckGroupCreate{Local: ev.ID, Canonical: g.ID}, true
		}
		if g.ID.Canonical() && g.ID >= s.nextCanonical {
			s.nextCanonical = g.ID + 1
		}
		s.Groups[g.ID] = g
		return AckApproval{}, true

	case *GroupDelete:
		if s.Groups[ev.ID] == nil {
			return AckRejection{}, false
		}
		delete(s.Groups, ev.ID)
		return AckApproval{}, true

	case *GroupAdd:
		g := s.Groups[ev.Group]
		if g == nil {
			return AckRejection{}, false
		}
		applied := g.Add(ev.Sprite)
		return AckApproval{}, !applied.Had

	case *GroupRemove:
		g := s.Groups[ev.Group]
		if g == nil {
			return AckRejection{}, false
		}
		applied := g.Remove(ev.Sprite)
		return AckApproval{}, applied.Had

	case *SceneTitle:
		if s.Title == ev.New {
			return AckApproval{}, false
		}
		s.Title = ev.New
		return AckApproval{}, true

	case *SceneDimensions:
		if s.W == ev.NewW && s.H == ev.NewH {
			return AckApproval{}, false
		}
		s.W, s.H = ev.NewW, ev.NewH
		return AckApproval{}, true

	case *Batch:
		for _, child := range ev.Events {
			_, c := s.ApplyEvent(child)
			changed = changed || c
		}
		return AckApproval{}, changed
	}
	return AckRejection{}, false
}

// UnwindEvent applies the exact inverse of a previously applied event,
// restoring every attribute the event touched to its prior value.
// Unknown ids are tolerated as no-ops, mirroring ApplyEvent. The caller
// owns any undo-stack bookkeeping; this only inverts a single event.
func (s *Scene) UnwindEvent(ev SceneEvent) {
	switch ev := ev.(type) {
	case *LayerCreate:
		if i := s.layerIndex(ev.ID); i >= 0 {
			s.Layers = append(s.Layers[:i], s.Layers[i+1:]...)
		}
	case *LayerRemove:
		if s.LayerByID(ev.Removed.ID) == nil {
			restored := ev.Removed
			s.Layers = append(s.Layers, &restored)
			sortLayers(s.Layers)
		}
	case *LayerRename:
		if l := s.LayerByID(ev.ID); l != nil {
			l.Title = ev.Old
		}
	case *LayerVisibility:
		if l := s.LayerByID(ev.ID); l != nil {
			l.Visible = ev.Old
		}
	case *LayerLocked:
		if l := s.LayerByID(ev.ID); l != nil {
			l.Locked = ev.Old
		}
	case *LayerLower:
		s.restoreZs(ev.Restore)
	case *LayerRaise:
		s.restoreZs(ev.Restore)
	case *SpriteCreate:
		if _, l := s.Sprite(ev.Sprite.ID); l != nil {
			l.takeSprite(ev.Sprite.ID)
		}
	case *SpriteRemove:
		if l := s.LayerByID(ev.Layer); l != nil && l.Sprite(ev.Removed.ID) == nil {
			l.insertSprite(ev.Removed, ev.Index)
		}
	case *SpriteMove:
		if sp, _ := s.Sprite(ev.ID); sp != nil {
			sp.Rect = ev.From
		}
	case *SpriteTexture:
		if sp, _ := s.Sprite(ev.ID); sp != nil {
			sp.Texture = ev.Old
		}
	case *SpriteLayer:
		if from := s.LayerByID(ev.From); from != nil {
			if sp, at := s.Sprite(ev.ID); sp != nil && at != from {
				moved, _, _ := at.takeSprite(ev.ID)
				from.addSprite(moved)
			}
		}
	case *GroupCreate:
		delete(s.Groups, ev.ID)
	case *GroupDelete:
		if s.Groups[ev.ID] == nil {
			s.Groups[ev.ID] = NewGroup(ev.ID, ev.Sprites)
		}
	case *GroupAdd:
		if g := s.Groups[ev.Group]; g != nil && !ev.Had {
			g.Remove(ev.Sprite)
		}
	case *GroupRemove:
		if g := s.Groups[ev.Group]; g != nil && ev.Had {
			g.Add(ev.Sprite)
		}
	case *SceneTitle:
		s.Title = ev.Old
	case *SceneDimensions:
		s.W, s.H = ev.OldW, ev.OldH
	case *Batch:
		for i := len(ev.Events) - 1; i >= 0; i-- {
			s.UnwindEvent(ev.Events[i])
		}
	}
}

// Canon rewrites every occurrence of local to canonical: layer and sprite
// ids, group ids, and group memberships. The rewrite is total; after it
// returns the local id is no longer resolvable anywhere in the scene.
//
// An unknown local id or an already-occupied canonical id indicates the
// replicas have desynchronized. That is a protocol invariant violation,
// reported as an error for the caller to log loudly; the scene is left
// untouched in that case.
func (s *Scene) Canon(local, canonical Id) error {
	if !local.Local() || !canonical.Canonical() {
		return fmt.Errorf("canon %d -> %d: ids out of range", local, canonical)
	}
	if s.LayerByID(canonical) != nil || s.Groups[canonical] != nil {
		return fmt.Errorf("canon %d -> %d: canonical id already in use", local, canonical)
	}
	if sp, _ := s.Sprite(canonical); sp != nil {
		return fmt.Errorf("canon %d -> %d: canonical id already in use", local, canonical)
	}

	found := false
	for _, l := range s.Layers {
		if l.ID == local {
			l.ID = canonical
			l.Canonical = canonical
			found = true
		}
		for i := range l.Sprites {
			if l.Sprites[i].ID == local {
				l.Sprites[i].ID = canonical
				l.Sprites[i].Canonical = canonical
				found = true
			}
		}
	}
	if g := s.Groups[local]; g != nil {
		delete(s.Groups, local)
		g.ID = canonical
		s.Groups[canonical] = g
		found = true
	}
	for _, g := range s.Groups {
		for i, sp := range g.Sprites {
			if sp == local {
				g.Sprites[i] = canonical
				found = true
			}
		}
	}
	if !found {
		return fmt.Errorf("canon %d -> %d: local id not found", local, canonical)
	}
	if canonical >= s.nextCanonical {
		s.nextCanonical = canonical + 1
	}
	return nil
}

// ApplyAck resolves a pending reconciliation. Approval and rejection
// acks carry no identity and are no-ops here; rejection-driven unwinding
// is the client interactor's responsibility. The returned error signals
// desync, per Canon.
func (s *Scene) ApplyAck(ack SceneEventAck) error {
	switch ack := ack.(type) {
	case AckApproval, AckRejection:
		return nil
	case *AckLayerCreate:
		if err := s.Canon(ack.Local, ack.Canonical); err != nil {
			return err
		}
		if l := s.LayerByID(ack.Canonical); l != nil && l.Z != ack.Z {
			l.Z = ack.Z
			sortLayers(s.Layers)
		}
		return nil
	case *AckSpriteCreate:
		return s.Canon(ack.Local, ack.Canonical)
	case *AckGroupCreate:
		return s.Canon(ack.Local, ack.Canonical)
	}
	return fmt.Errorf("apply ack: unhandled ack type %T", ack)
}

// Canonicalize promotes the scene to the authoritative replica, assigning
// canonical ids to every entity still carrying a local one. The server
// calls this once when it takes ownership of a scene.
func (s *Scene) Canonicalize() {
	for _, l := range s.Layers {
		if l.ID.Canonical() && l.ID >= s.nextCanonical {
			s.nextCanonical = l.ID + 1
		}
		for i := range l.Sprites {
			if l.Sprites[i].ID.Canonical() && l.Sprites[i].ID >= s.nextCanonical {
				s.nextCanonical = l.Sprites[i].ID + 1
			}
		}
	}
	for id := range s.Groups {
		if id.Canonical() && id >= s.nextCanonical {
			s.nextCanonical = id + 1
		}
	}

	for _, l := range s.Layers {
		if l.ID.Local() {
			// Ignore desync errors: the ids were just allocated.
			_ = s.Canon(l.ID, s.allocCanonical())
		}
		for i := 0; i < len(l.Sprites); i++ {
			if l.Sprites[i].ID.Local() {
				_ = s.Canon(l.Sprites[i].ID, s.allocCanonical())
			}
		}
	}
	for id := range s.Groups {
		if id.Local() {
			_ = s.Canon(id, s.allocCanonical())
		}
	}
	s.authoritative = true
}

const snapshotSchema = 1

type snapshot struct {
	Schema int           `json:"schema"`
	ID     Id            `json:"id,omitempty"`
	Title  string        `json:"title,omitempty"`
	W      int           `json:"w"`
	H      int           `json:"h"`
	Layers []*Layer      `json:"layers"`
	Groups map[Id]*Group `json:"groups,omitempty"`
}

// Export serializes the full scene state so external storage can snapshot
// it without understanding the event log.
func (s *Scene) Export() ([]byte, error) {
	return json.Marshal(snapshot{
		Schema: snapshotSchema,
		ID:     s.ID,
		Title:  s.Title,
		W:      s.W,
		H:      s.H,
		Layers: s.Layers,
		Groups: s.Groups,
	})
}

// Import restores a scene from an Export snapshot. The result is
// speculative; the server promotes it with Canonicalize.
func Import(data []byte) (*Scene, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("import scene: %w", err)
	}
	if snap.Schema != snapshotSchema {
		return nil, fmt.Errorf("import scene: unsupported schema %d", snap.Schema)
	}
	s := &Scene{
		ID:            snap.ID,
		Title:         snap.Title,
		W:             snap.W,
		H:             snap.H,
		Layers:        snap.Layers,
		Groups:        snap.Groups,
		nextCanonical: 1,
	}
	if s.Groups == nil {
		s.Groups = map[Id]*Group{}
	}
	sortLayers(s.Layers)
	for _, l := range s.Layers {
		if l.ID < s.nextLocal {
			s.nextLocal = l.ID
		}
		if l.ID >= s.nextCanonical {
			s.nextCanonical = l.ID + 1
		}
		for i := range l.Sprites {
			id := l.Sprites[i].ID
			if id < s.nextLocal {
				s.nextLocal = id
			}
			if id >= s.nextCanonical {
				s.nextCanonical = id + 1
			}
		}
	}
	for id := range s.Groups {
		if id < s.nextLocal {
			s.nextLocal = id
		}
		if id >= s.nextCanonical {
			s.nextCanonical = id + 1
		}
	}
	return s, nil
}
