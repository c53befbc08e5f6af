package perms

import (
	"testing"

	"github.com/lukeharby/wildspace/internal/scene"
)

func TestParseRoleRoundTrip(t *testing.T) {
	for _, role := range []Role{RoleViewer, RolePlayer, RoleEditor, RoleOwner} {
		if got := ParseRole(role.String()); got != role {
			t.Fatalf("expected %v, got %v", role, got)
		}
	}
	if got := ParseRole("gamemaster"); got != RoleViewer {
		t.Fatalf("unknown label should default to viewer, got %v", got)
	}
}

func TestPermittedByRole(t *testing.T) {
	const (
		owner  int64 = 1
		editor int64 = 2
		player int64 = 3
		viewer int64 = 4
	)
	p := New()
	p.SetOwner(owner)
	p.SetRole(editor, RoleEditor)
	p.SetRole(player, RolePlayer)

	sceneEvent := &scene.SceneTitle{New: "T"}
	layerEvent := &scene.LayerCreate{ID: -1, Title: "L", Z: 1}
	spriteEvent := &scene.SpriteCreate{Sprite: scene.Sprite{ID: -2}, Layer: 1}
	updateEvent := &scene.SpriteMove{ID: 5, To: scene.Rect{X: 1}}
	batchEvent := &scene.Batch{}

	tests := []struct {
		name string
		user int64
		ev   scene.SceneEvent
		want bool
	}{
		{"owner may change scene settings", owner, sceneEvent, true},
		{"editor may not change scene settings", editor, sceneEvent, false},
		{"editor may manage layers", editor, layerEvent, true},
		{"editor may manage sprites", editor, spriteEvent, true},
		{"player may not manage layers", player, layerEvent, false},
		{"player may not manage sprites", player, spriteEvent, false},
		{"player may update sprites", player, updateEvent, true},
		{"viewer may not update sprites", viewer, updateEvent, false},
		{"unknown user defaults to viewer", 99, updateEvent, false},
		{"no role may submit batches", owner, batchEvent, false},
		{"nil event is denied", owner, nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.Permitted(tc.user, tc.ev); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestRoleChange(t *testing.T) {
	const (
		owner  int64 = 1
		editor int64 = 2
		player int64 = 3
	)
	newTable := func() *Perms {
		p := New()
		p.SetOwner(owner)
		p.SetRole(editor, RoleEditor)
		p.SetRole(player, RolePlayer)
		return p
	}

	tests := []struct {
		name    string
		updater int64
		user    int64
		role    Role
		want    bool
	}{
		{"owner promotes player to editor", owner, player, RoleEditor, true},
		{"editor promotes player to editor", editor, player, RoleEditor, true},
		{"editor demotes player to viewer", editor, player, RoleViewer, true},
		{"player cannot grant a role above their own", player, 9, RoleEditor, false},
		{"editor cannot grant a role above their own", editor, player, RoleOwner, false},
		{"owner cannot be demoted", editor, owner, RoleViewer, false},
		{"owner role cannot be granted", owner, player, RoleOwner, false},
		{"updater below target cannot touch them", player, editor, RoleViewer, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newTable()
			before := p.Role(tc.user)
			got := p.RoleChange(tc.updater, tc.user, tc.role)
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			after := p.Role(tc.user)
			if tc.want && after != tc.role {
				t.Fatalf("expected role %v after change, got %v", tc.role, after)
			}
			if !tc.want && after != before {
				t.Fatalf("denied change must not alter the role, got %v", after)
			}
		})
	}
}

func TestOwnerLookup(t *testing.T) {
	p := New()
	if p.Owner() != 0 {
		t.Fatal("empty table has no owner")
	}
	p.SetRole(2, RoleEditor)
	p.SetOwner(7)
	if got := p.Owner(); got != 7 {
		t.Fatalf("expected owner 7, got %d", got)
	}
}
