// Package game composes the authoritative scene replica with its
// permission table and runs the per-scene session loop that serializes
// all mutations for one scene.
package game

import (
	"github.com/lukeharby/wildspace/internal/perms"
	"github.com/lukeharby/wildspace/internal/scene"
)

// Game is the externally-visible unit of authority for one live scene:
// the authoritative Scene plus the Perms table gating every event.
type Game struct {
	Scene *scene.Scene
	Perms *perms.Perms
}

// New promotes the scene to the authoritative replica and grants the
// owner role.
func New(sc *scene.Scene, owner int64) *Game {
	sc.Canonicalize()
	p := perms.New()
	p.SetOwner(owner)
	return &Game{Scene: sc, Perms: p}
}

// HandleEvent checks permission and, if allowed, applies the event to the
// authoritative scene. The permission check runs strictly before any
// mutation, so a denial leaves the scene untouched.
//
// The returned ack is what the originating client reconciles against;
// applied reports whether the event changed authoritative state and
// should be broadcast to peers.
func (g *Game) HandleEvent(user int64, ev scene.SceneEvent) (ack scene.SceneEventAck, applied bool) {
	if !g.Perms.Permitted(user, ev) {
		return scene.AckRejection{}, false
	}
	ack, changed := g.Scene.ApplyEvent(ev)
	if scene.Rejected(ack) {
		return ack, false
	}
	return ack, changed
}
