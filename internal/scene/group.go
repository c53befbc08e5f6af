package scene

// Group is a named set of sprite ids moved and styled together.
// Membership order is irrelevant and duplicates never occur.
type Group struct {
	ID      Id   `json:"id"`
	Sprites []Id `json:"sprites,omitempty"`
}

// NewGroup creates a group over the given sprites, dropping duplicates.
func NewGroup(id Id, sprites []Id) *Group {
	g := &Group{ID: id}
	for _, s := range sprites {
		if !g.Includes(s) {
			g.Sprites = append(g.Sprites, s)
		}
	}
	return g
}

// Includes reports whether the sprite is a member of the group.
func (g *Group) Includes(sprite Id) bool {
	for _, s := range g.Sprites {
		if s == sprite {
			return true
		}
	}
	return false
}

// Add inserts the sprite if absent. The event is returned either way so
// peers can replay the operation idempotently; Had on the event records
// whether membership actually changed.
func (g *Group) Add(sprite Id) *GroupAdd {
	ev := &GroupAdd{Group: g.ID, Sprite: sprite, Had: g.Includes(sprite)}
	if !ev.Had {
		g.Sprites = append(g.Sprites, sprite)
	}
	return ev
}

// Remove drops the sprite if present. The event is returned either way,
// symmetric with Add.
func (g *Group) Remove(sprite Id) *GroupRemove {
	ev := &GroupRemove{Group: g.ID, Sprite: sprite, Had: g.Includes(sprite)}
	if ev.Had {
		kept := g.Sprites[:0]
		for _, s := range g.Sprites {
			if s != sprite {
				kept = append(kept, s)
			}
		}
		g.Sprites = kept
	}
	return ev
}
