package scene

import "sort"

// Layer is one ordered drawing plane of a scene. Layers stack by z: higher
// values draw above lower ones, and the grid sits at z zero.
type Layer struct {
	// ID is the id the layer is currently addressed by: local until the
	// creating event is acknowledged, canonical afterwards.
	ID Id `json:"id"`
	// Canonical is the server-assigned id, zero until acknowledged.
	Canonical Id       `json:"canonical,omitempty"`
	Title     string   `json:"title"`
	Z         int      `json:"z"`
	Visible   bool     `json:"visible"`
	Locked    bool     `json:"locked"`
	Sprites   []Sprite `json:"sprites,omitempty"`
}

// NewLayer creates a visible, unlocked, empty layer.
func NewLayer(id Id, title string, z int) Layer {
	return Layer{ID: id, Title: title, Z: z, Visible: true}
}

// Rename retitles the layer and returns the event describing the change.
func (l *Layer) Rename(title string) *LayerRename {
	old := l.Title
	l.Title = title
	return &LayerRename{ID: l.ID, Old: old, New: title}
}

// SetVisible toggles visibility, returning the event or nil when the flag
// is unchanged.
func (l *Layer) SetVisible(visible bool) *LayerVisibility {
	if l.Visible == visible {
		return nil
	}
	old := l.Visible
	l.Visible = visible
	return &LayerVisibility{ID: l.ID, Old: old, Visible: visible}
}

// SetLocked toggles the lock, returning the event or nil when the flag is
// unchanged.
func (l *Layer) SetLocked(locked bool) *LayerLocked {
	if l.Locked == locked {
		return nil
	}
	old := l.Locked
	l.Locked = locked
	return &LayerLocked{ID: l.ID, Old: old, Locked: locked}
}

// Selectable reports whether sprites on this layer can be interacted
// with. Hidden and locked layers are inert.
func (l *Layer) Selectable() bool {
	return l.Visible && !l.Locked
}

// Sprite returns the sprite currently addressed by id, or nil.
func (l *Layer) Sprite(id Id) *Sprite {
	for i := range l.Sprites {
		if l.Sprites[i].ID == id {
			return &l.Sprites[i]
		}
	}
	return nil
}

// spriteIndex returns the position of the sprite addressed by id, or -1.
func (l *Layer) spriteIndex(id Id) int {
	for i := range l.Sprites {
		if l.Sprites[i].ID == id {
			return i
		}
	}
	return -1
}

// addSprite appends the sprite. Callers guarantee the id is not already
// present on any layer of the scene.
func (l *Layer) addSprite(s Sprite) {
	l.Sprites = append(l.Sprites, s)
}

// insertSprite places the sprite at index, clamping out-of-range indices.
// Used when unwinding a removal so ordering is restored exactly.
func (l *Layer) insertSprite(s Sprite, index int) {
	if index < 0 {
		index = 0
	}
	if index > len(l.Sprites) {
		index = len(l.Sprites)
	}
	l.Sprites = append(l.Sprites, Sprite{})
	copy(l.Sprites[index+1:], l.Sprites[index:])
	l.Sprites[index] = s
}

// takeSprite removes and returns the sprite addressed by id along with
// its index, or a false ok for unknown ids.
func (l *Layer) takeSprite(id Id) (Sprite, int, bool) {
	i := l.spriteIndex(id)
	if i < 0 {
		return Sprite{}, 0, false
	}
	s := l.Sprites[i]
	l.Sprites = append(l.Sprites[:i], l.Sprites[i+1:]...)
	return s, i, true
}

// sortLayers orders layers top-first by descending z.
func sortLayers(layers []*Layer) {
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].Z > layers[j].Z
	})
}
