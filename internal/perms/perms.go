// Package perms gates scene events by user role. The policy is checked
// strictly before any state mutation so a denial leaves the authoritative
// scene untouched.
package perms

import (
	"github.com/lukeharby/wildspace/internal/scene"
)

// Role is a coarse authorization level for one user in one scene.
// Roles are ordered; a higher role may do everything a lower one may.
type Role int

const (
	// RoleViewer may watch but not mutate anything.
	RoleViewer Role = iota
	// RolePlayer may update sprites (move, retexture) but not manage
	// layers, groups, or scene settings.
	RolePlayer
	// RoleEditor may perform every ordinary scene mutation.
	RoleEditor
	// RoleOwner additionally holds scene-level privileges and cannot be
	// demoted.
	RoleOwner
)

// ParseRole maps a wire label to a Role, defaulting to viewer.
func ParseRole(label string) Role {
	switch label {
	case "owner":
		return RoleOwner
	case "editor":
		return RoleEditor
	case "player":
		return RolePlayer
	default:
		return RoleViewer
	}
}

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleEditor:
		return "editor"
	case RolePlayer:
		return "player"
	default:
		return "viewer"
	}
}

// class buckets event variants by the capability they demand.
type class int

const (
	// classSpecial covers server-internal events no client role may send.
	classSpecial class = iota
	// classScene covers scene-level settings, owner territory.
	classScene
	// classLayer covers layer management and reordering.
	classLayer
	// classSprite covers sprite and group structure changes.
	classSprite
	// classSpriteUpdate covers in-place sprite edits players may make.
	classSpriteUpdate
)

// classify buckets an event exhaustively; adding an event variant without
// extending this switch leaves it in the most restricted class.
func classify(ev scene.SceneEvent) class {
	switch ev.(type) {
	case *scene.Batch:
		return classSpecial
	case *scene.SceneTitle, *scene.SceneDimensions:
		return classScene
	case *scene.LayerCreate, *scene.LayerRemove, *scene.LayerRename,
		*scene.LayerVisibility, *scene.LayerLocked,
		*scene.LayerLower, *scene.LayerRaise:
		return classLayer
	case *scene.SpriteCreate, *scene.SpriteRemove, *scene.SpriteLayer,
		*scene.GroupCreate, *scene.GroupDelete,
		*scene.GroupAdd, *scene.GroupRemove:
		return classSprite
	case *scene.SpriteMove, *scene.SpriteTexture:
		return classSpriteUpdate
	}
	return classSpecial
}

// allows reports whether the role covers the capability class.
func (r Role) allows(c class) bool {
	switch c {
	case classSpecial:
		return false
	case classScene:
		return r >= RoleOwner
	case classLayer, classSprite:
		return r >= RoleEditor
	case classSpriteUpdate:
		return r >= RolePlayer
	}
	return false
}

// Perms holds the per-scene user-to-role mapping. One instance is owned
// by the scene's game session and mutated only through its sequential
// loop, so no locking is needed.
type Perms struct {
	roles map[int64]Role
}

// New creates an empty permission table; unknown users are viewers.
func New() *Perms {
	return &Perms{roles: map[int64]Role{}}
}

// Role returns the user's role, defaulting to viewer.
func (p *Perms) Role(user int64) Role {
	if r, ok := p.roles[user]; ok {
		return r
	}
	return RoleViewer
}

// SetOwner grants the owner role. Called once when a session starts.
func (p *Perms) SetOwner(user int64) {
	p.roles[user] = RoleOwner
}

// Owner returns the user holding the owner role, or zero when none does.
func (p *Perms) Owner() int64 {
	for user, role := range p.roles {
		if role == RoleOwner {
			return user
		}
	}
	return 0
}

// SetRole assigns a role directly, bypassing the RoleChange rules. Used
// when seeding a joining user's role from their join grant.
func (p *Perms) SetRole(user int64, role Role) {
	p.roles[user] = role
}

// RoleChange applies updater's request to change user's role. The owner
// cannot be demoted, the owner role cannot be granted, and the updater
// must hold a role at least as high as both the target user's current
// role and the role being granted.
func (p *Perms) RoleChange(updater, user int64, role Role) bool {
	if p.Role(user) == RoleOwner || role == RoleOwner {
		return false
	}
	if p.Role(updater) < role || p.Role(updater) < p.Role(user) {
		return false
	}
	p.roles[user] = role
	return true
}

// Permitted reports whether the user's role allows applying the event.
func (p *Perms) Permitted(user int64, ev scene.SceneEvent) bool {
	if ev == nil {
		return false
	}
	return p.Role(user).allows(classify(ev))
}
