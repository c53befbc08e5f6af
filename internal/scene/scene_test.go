package scene

import (
	"bytes"
	"testing"
)

func layerZs(s *Scene) []LayerZ {
	return s.stackZs()
}

func TestNewDefaultLayers(t *testing.T) {
	s := New()
	if len(s.Layers) != 3 {
		t.Fatalf("expected 3 default layers, got %d", len(s.Layers))
	}
	want := []struct {
		title string
		z     int
	}{
		{"Foreground", 1},
		{"Scenery", -1},
		{"Background", -2},
	}
	for i, w := range want {
		l := s.Layers[i]
		if l.Title != w.title || l.Z != w.z {
			t.Fatalf("layer %d: expected %q z=%d, got %q z=%d", i, w.title, w.z, l.Title, l.Z)
		}
		if !l.ID.Local() {
			t.Fatalf("layer %d: expected local id, got %d", i, l.ID)
		}
		if !l.Visible || l.Locked {
			t.Fatalf("layer %d: expected visible and unlocked", i)
		}
	}
	if s.W != defaultSize || s.H != defaultSize {
		t.Fatalf("expected default %dx%d grid, got %dx%d", defaultSize, defaultSize, s.W, s.H)
	}
	if s.Authoritative() {
		t.Fatal("new scene should be speculative")
	}
}

func TestAddLayerAvoidsTakenZ(t *testing.T) {
	s := New()
	t.Run("free z is kept", func(t *testing.T) {
		l, ev := s.AddLayer("Tokens", 5)
		if l.Z != 5 || ev.Z != 5 {
			t.Fatalf("expected z 5, got layer %d event %d", l.Z, ev.Z)
		}
		if s.Layers[0] != l {
			t.Fatal("layer with highest z should be on top")
		}
	})
	t.Run("taken z bumps above the stack", func(t *testing.T) {
		l, _ := s.AddLayer("Clash", 1)
		if l.Z != 6 {
			t.Fatalf("expected bump above top z 5, got %d", l.Z)
		}
	})
	t.Run("zero is reserved for the grid", func(t *testing.T) {
		l, _ := s.AddLayer("Zero", 0)
		if l.Z == 0 {
			t.Fatal("z zero must never be assigned")
		}
	})
}

func TestRemoveLayerRoundTrip(t *testing.T) {
	s := New()
	target := s.Layers[1]
	id := target.ID

	ev := s.RemoveLayer(id)
	if ev == nil {
		t.Fatal("expected removal event")
	}
	if ev.Index != 1 || ev.Removed.ID != id {
		t.Fatalf("expected index 1 id %d, got index %d id %d", id, ev.Index, ev.Removed.ID)
	}
	if s.LayerByID(id) != nil {
		t.Fatal("layer should be gone")
	}
	if s.RemoveLayer(id) != nil {
		t.Fatal("removing an unknown layer should return nil")
	}

	s.UnwindEvent(ev)
	restored := s.LayerByID(id)
	if restored == nil {
		t.Fatal("unwind should restore the layer")
	}
	if s.Layers[1] != restored {
		t.Fatal("unwind should restore stack position")
	}
}

func TestLowerLayerRenumbersDescendingFromMinusOne(t *testing.T) {
	s := New()
	top := s.Layers[0]

	ev := s.LowerLayer(top.ID)
	if ev == nil {
		t.Fatal("expected reorder event")
	}
	got := layerZs(s)
	for i, lz := range got {
		if want := -(i + 1); lz.Z != want {
			t.Fatalf("layer %d: expected z %d, got %d", i, want, lz.Z)
		}
	}
	if s.Layers[len(s.Layers)-1] != top {
		t.Fatal("lowered layer should be at the bottom")
	}

	t.Run("lowering the bottom layer again is a no-op", func(t *testing.T) {
		if s.LowerLayer(top.ID) != nil {
			t.Fatal("expected nil event for unchanged arrangement")
		}
	})

	t.Run("unwind restores the prior arrangement exactly", func(t *testing.T) {
		s.UnwindEvent(ev)
		want := []LayerZ{
			{s.Layers[0].ID, 1},
			{s.Layers[1].ID, -1},
			{s.Layers[2].ID, -2},
		}
		got := layerZs(s)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("layer %d: expected %+v, got %+v", i, want[i], got[i])
			}
		}
		if s.Layers[0] != top {
			t.Fatal("unwound layer should be back on top")
		}
	})
}

func TestLowerAcknowledgedTopLayer(t *testing.T) {
	s := New()
	for len(s.Layers) > 0 {
		s.RemoveLayer(s.Layers[0].ID)
	}
	bottom, _ := s.AddLayer("Bottom", 1)
	middle, _ := s.AddLayer("Middle", 2)
	top, _ := s.AddLayer("Top", 3)

	if err := s.ApplyAck(&AckLayerCreate{Local: top.ID, Canonical: 100, Z: 3}); err != nil {
		t.Fatalf("apply ack: %v", err)
	}

	ev := s.LowerLayer(100)
	if ev == nil {
		t.Fatal("expected reorder event")
	}
	want := []LayerZ{{middle.ID, -1}, {bottom.ID, -2}, {100, -3}}
	got := layerZs(s)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("layer %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	s.UnwindEvent(ev)
	want = []LayerZ{{100, 3}, {middle.ID, 2}, {bottom.ID, 1}}
	got = layerZs(s)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("after unwind, layer %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestRaiseLayerRenumbersEndingAtOne(t *testing.T) {
	s := New()
	bottom := s.Layers[2]

	ev := s.RaiseLayer(bottom.ID)
	if ev == nil {
		t.Fatal("expected reorder event")
	}
	if s.Layers[0] != bottom {
		t.Fatal("raised layer should be on top")
	}
	n := len(s.Layers)
	for i, l := range s.Layers {
		if want := n - i; l.Z != want {
			t.Fatalf("layer %d: expected z %d, got %d", i, want, l.Z)
		}
	}

	s.UnwindEvent(ev)
	if s.Layers[2] != bottom {
		t.Fatal("unwind should send the layer back to the bottom")
	}
	if bottom.Z != -2 {
		t.Fatalf("expected restored z -2, got %d", bottom.Z)
	}
}

func TestSpriteLifecycle(t *testing.T) {
	s := New()
	layer := s.Layers[0]

	sp, create := s.AddSprite(layer.ID, "goblin", Rect{X: 1, Y: 2, W: 1, H: 1})
	if sp == nil || create == nil {
		t.Fatal("expected sprite and creation event")
	}
	if !sp.ID.Local() {
		t.Fatalf("speculative sprite should have a local id, got %d", sp.ID)
	}

	move := s.MoveSprite(sp.ID, Rect{X: 3, Y: 4, W: 1, H: 1})
	if move == nil || move.From != (Rect{X: 1, Y: 2, W: 1, H: 1}) {
		t.Fatalf("expected move event recording the prior rect, got %+v", move)
	}
	if s.MoveSprite(sp.ID, sp.Rect) != nil {
		t.Fatal("moving to the current rect should return nil")
	}

	other := s.Layers[1]
	shift := s.SetSpriteLayer(sp.ID, other.ID)
	if shift == nil || shift.From != layer.ID || shift.To != other.ID {
		t.Fatalf("expected layer shift event, got %+v", shift)
	}
	if layer.Sprite(sp.ID) != nil || other.Sprite(sp.ID) == nil {
		t.Fatal("sprite should have moved layers")
	}

	remove := s.RemoveSprite(sp.ID)
	if remove == nil || remove.Layer != other.ID {
		t.Fatalf("expected removal event from layer %d, got %+v", other.ID, remove)
	}
	if got, _ := s.Sprite(sp.ID); got != nil {
		t.Fatal("sprite should be gone")
	}
}

func TestApplyEventOutcomes(t *testing.T) {
	t.Run("unknown id is rejected without mutation", func(t *testing.T) {
		s := New()
		before, _ := s.Export()
		ack, changed := s.ApplyEvent(&LayerRename{ID: 999, Old: "a", New: "b"})
		if !Rejected(ack) || changed {
			t.Fatalf("expected rejection without change, got %T changed=%v", ack, changed)
		}
		after, _ := s.Export()
		if !bytes.Equal(before, after) {
			t.Fatal("rejected event must not mutate the scene")
		}
	})

	t.Run("no-delta event approves without change", func(t *testing.T) {
		s := New()
		l := s.Layers[0]
		ack, changed := s.ApplyEvent(&LayerRename{ID: l.ID, Old: l.Title, New: l.Title})
		if Rejected(ack) || changed {
			t.Fatalf("expected approval without change, got %T changed=%v", ack, changed)
		}
	})

	t.Run("authoritative replica issues identity acks for local ids", func(t *testing.T) {
		s := New()
		s.Canonicalize()
		ack, changed := s.ApplyEvent(&LayerCreate{ID: -100, Title: "Tokens", Z: 5})
		identity, ok := ack.(*AckLayerCreate)
		if !ok || !changed {
			t.Fatalf("expected layer identity ack, got %T changed=%v", ack, changed)
		}
		if identity.Local != -100 || !identity.Canonical.Canonical() {
			t.Fatalf("expected -100 mapped to a canonical id, got %+v", identity)
		}
		if identity.Z != 5 {
			t.Fatalf("expected settled z 5, got %d", identity.Z)
		}
		if s.LayerByID(identity.Canonical) == nil {
			t.Fatal("layer should be addressable by its canonical id")
		}
		if s.LayerByID(-100) != nil {
			t.Fatal("local id must not be resolvable on the server")
		}
	})

	t.Run("sprite create on authoritative replica", func(t *testing.T) {
		s := New()
		s.Canonicalize()
		layer := s.Layers[0]
		ack, changed := s.ApplyEvent(&SpriteCreate{
			Sprite: Sprite{ID: -7, Texture: "goblin", Rect: Rect{W: 1, H: 1}},
			Layer:  layer.ID,
		})
		identity, ok := ack.(*AckSpriteCreate)
		if !ok || !changed {
			t.Fatalf("expected sprite identity ack, got %T changed=%v", ack, changed)
		}
		sp := layer.Sprite(identity.Canonical)
		if sp == nil || sp.Canonical != identity.Canonical {
			t.Fatal("sprite should carry its canonical id")
		}
	})

	t.Run("group create on authoritative replica", func(t *testing.T) {
		s := New()
		s.Canonicalize()
		ack, changed := s.ApplyEvent(&GroupCreate{ID: -3, Sprites: []Id{1, 2}})
		identity, ok := ack.(*AckGroupCreate)
		if !ok || !changed {
			t.Fatalf("expected group identity ack, got %T changed=%v", ack, changed)
		}
		if s.Group(identity.Canonical) == nil {
			t.Fatal("group should be addressable by its canonical id")
		}
	})

	t.Run("replicated create with canonical id approves plainly", func(t *testing.T) {
		s := New()
		ack, changed := s.ApplyEvent(&LayerCreate{ID: 42, Title: "Remote", Z: 9})
		if _, ok := ack.(AckApproval); !ok || !changed {
			t.Fatalf("expected plain approval, got %T changed=%v", ack, changed)
		}
		if s.LayerByID(42) == nil {
			t.Fatal("replicated layer should exist under its canonical id")
		}
	})

	t.Run("duplicate create is rejected", func(t *testing.T) {
		s := New()
		s.ApplyEvent(&LayerCreate{ID: 42, Title: "Remote", Z: 9})
		ack, changed := s.ApplyEvent(&LayerCreate{ID: 42, Title: "Remote", Z: 9})
		if !Rejected(ack) || changed {
			t.Fatalf("expected rejection, got %T changed=%v", ack, changed)
		}
	})
}

func TestUnwindFlagEventRestoresPriorValue(t *testing.T) {
	s := New()
	layer := s.Layers[0]

	// A flag event can arrive already matching the layer; unwinding it
	// must restore the recorded prior value, not flip blindly.
	noop := &LayerVisibility{ID: layer.ID, Old: true, Visible: true}
	if _, changed := s.ApplyEvent(noop); changed {
		t.Fatal("matching visibility should not change the layer")
	}
	s.UnwindEvent(noop)
	if !layer.Visible {
		t.Fatal("unwinding a no-op visibility event must leave the layer visible")
	}

	hide := layer.SetVisible(false)
	if hide == nil || !hide.Old {
		t.Fatalf("expected prior visibility recorded as true, got %+v", hide)
	}
	s.UnwindEvent(hide)
	if !layer.Visible {
		t.Fatal("unwinding the hide must restore visibility")
	}

	lock := layer.SetLocked(true)
	if lock == nil || lock.Old {
		t.Fatalf("expected prior lock recorded as false, got %+v", lock)
	}
	s.UnwindEvent(lock)
	if layer.Locked {
		t.Fatal("unwinding the lock must restore the unlocked state")
	}
}

func TestApplyThenUnwindRestoresState(t *testing.T) {
	s := New()
	layer := s.Layers[0]
	sp, _ := s.AddSprite(layer.ID, "goblin", Rect{X: 1, Y: 1, W: 1, H: 1})
	spriteID := sp.ID

	before, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var events []SceneEvent
	record := func(ev SceneEvent) {
		if ev == nil {
			t.Fatal("expected an event")
		}
		events = append(events, ev)
	}

	record(s.MoveSprite(spriteID, Rect{X: 5, Y: 5, W: 2, H: 2}))
	_, groupCreate := s.CreateGroup([]Id{spriteID})
	record(groupCreate)
	record(s.Groups[groupCreate.ID].Add(77))
	record(s.SetTitle("Ambush at the Bridge"))
	record(s.SetDimensions(64, 48))
	record(s.LowerLayer(layer.ID))
	record(s.RemoveLayer(s.Layers[0].ID))

	for i := len(events) - 1; i >= 0; i-- {
		s.UnwindEvent(events[i])
	}

	after, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("unwind did not restore state\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestBatchAppliesAndUnwindsAsOneUnit(t *testing.T) {
	s := New()
	layer := s.Layers[0]
	sp, _ := s.AddSprite(layer.ID, "a", Rect{W: 1, H: 1})

	before, _ := s.Export()
	batch := &Batch{Events: []SceneEvent{
		&SpriteMove{ID: sp.ID, From: sp.Rect, To: Rect{X: 2, W: 1, H: 1}},
		&SceneTitle{Old: "", New: "Batched"},
	}}
	ack, changed := s.ApplyEvent(batch)
	if Rejected(ack) || !changed {
		t.Fatalf("expected batch to apply, got %T changed=%v", ack, changed)
	}
	if s.Title != "Batched" {
		t.Fatalf("expected batched title, got %q", s.Title)
	}

	s.UnwindEvent(batch)
	after, _ := s.Export()
	if !bytes.Equal(before, after) {
		t.Fatal("batch unwind should restore prior state")
	}
}

func TestCanonRewritesEveryReference(t *testing.T) {
	s := New()
	layer := s.Layers[0]
	sp, _ := s.AddSprite(layer.ID, "goblin", Rect{W: 1, H: 1})
	local := sp.ID
	g, _ := s.CreateGroup([]Id{local})

	if err := s.Canon(local, 50); err != nil {
		t.Fatalf("canon: %v", err)
	}
	if got := layer.Sprite(50); got == nil || got.Canonical != 50 {
		t.Fatal("sprite should be addressable by its canonical id")
	}
	if layer.Sprite(local) != nil {
		t.Fatal("local id must no longer resolve")
	}
	if !s.Groups[g.ID].Includes(50) || s.Groups[g.ID].Includes(local) {
		t.Fatal("group membership should follow the rewrite")
	}

	t.Run("stale local reference becomes a rejection", func(t *testing.T) {
		ack, changed := s.ApplyEvent(&SpriteMove{ID: local, To: Rect{X: 9}})
		if !Rejected(ack) || changed {
			t.Fatalf("expected rejection for stale local id, got %T changed=%v", ack, changed)
		}
	})
}

func TestCanonDesyncErrors(t *testing.T) {
	s := New()
	layer := s.Layers[0]
	sp, _ := s.AddSprite(layer.ID, "a", Rect{W: 1, H: 1})

	tests := []struct {
		name      string
		local     Id
		canonical Id
	}{
		{"unknown local id", -999, 80},
		{"ids out of range", 5, 80},
		{"canonical id already in use", sp.ID, func() Id {
			if err := s.Canon(s.Layers[1].ID, 81); err != nil {
				t.Fatalf("setup canon: %v", err)
			}
			return 81
		}()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.Canon(tc.local, tc.canonical); err == nil {
				t.Fatal("expected desync error")
			}
		})
	}
}

func TestApplyAckReconcilesLayerZ(t *testing.T) {
	s := New()
	l, ev := s.AddLayer("Tokens", 5)
	local := ev.ID

	// The server settled on a different z after a collision.
	if err := s.ApplyAck(&AckLayerCreate{Local: local, Canonical: 30, Z: 7}); err != nil {
		t.Fatalf("apply ack: %v", err)
	}
	if l.ID != 30 || l.Canonical != 30 {
		t.Fatalf("expected canonical id 30, got %d/%d", l.ID, l.Canonical)
	}
	if l.Z != 7 {
		t.Fatalf("expected settled z 7, got %d", l.Z)
	}
	if s.Layers[0] != l {
		t.Fatal("stack should be resorted around the settled z")
	}
}

func TestApplyAckApprovalAndRejectionAreNoOps(t *testing.T) {
	s := New()
	before, _ := s.Export()
	if err := s.ApplyAck(AckApproval{}); err != nil {
		t.Fatalf("approval ack: %v", err)
	}
	if err := s.ApplyAck(AckRejection{}); err != nil {
		t.Fatalf("rejection ack: %v", err)
	}
	after, _ := s.Export()
	if !bytes.Equal(before, after) {
		t.Fatal("identity-free acks must not mutate the scene")
	}
}

func TestCanonicalizePromotesEveryLocalId(t *testing.T) {
	s := New()
	layer := s.Layers[0]
	sp, _ := s.AddSprite(layer.ID, "a", Rect{W: 1, H: 1})
	s.CreateGroup([]Id{sp.ID})

	s.Canonicalize()
	if !s.Authoritative() {
		t.Fatal("scene should be authoritative")
	}
	for _, l := range s.Layers {
		if !l.ID.Canonical() {
			t.Fatalf("layer %q still has local id %d", l.Title, l.ID)
		}
		for _, spr := range l.Sprites {
			if !spr.ID.Canonical() {
				t.Fatalf("sprite still has local id %d", spr.ID)
			}
		}
	}
	for id := range s.Groups {
		if !id.Canonical() {
			t.Fatalf("group still has local id %d", id)
		}
	}

	t.Run("new ids are canonical afterwards", func(t *testing.T) {
		l, _ := s.AddLayer("Fresh", 9)
		if !l.ID.Canonical() {
			t.Fatalf("expected canonical id, got %d", l.ID)
		}
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	s := New()
	layer := s.Layers[0]
	sp, _ := s.AddSprite(layer.ID, "goblin", Rect{X: 1, Y: 2, W: 1, H: 1})
	s.CreateGroup([]Id{sp.ID})
	s.SetTitle("Bridge")
	s.SetDimensions(64, 48)

	data, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	restored, err := Import(data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	again, err := restored.Export()
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Fatalf("round trip drifted\nfirst:  %s\nsecond: %s", data, again)
	}

	t.Run("imported scene mints fresh ids", func(t *testing.T) {
		l, _ := restored.AddLayer("New", 9)
		if restored.LayerByID(l.ID) != l {
			t.Fatal("fresh layer should be addressable")
		}
		for _, existing := range restored.Layers[1:] {
			if existing.ID == l.ID {
				t.Fatal("fresh id collided with an imported one")
			}
		}
	})

	t.Run("unsupported schema is refused", func(t *testing.T) {
		if _, err := Import([]byte(`{"schema":2,"layers":[]}`)); err == nil {
			t.Fatal("expected schema error")
		}
	})

	t.Run("garbage is refused", func(t *testing.T) {
		if _, err := Import([]byte("not json")); err == nil {
			t.Fatal("expected decode error")
		}
	})
}
