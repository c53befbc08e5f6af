package scene

// Rect is the axis-aligned placement of a sprite in scene units. Negative
// dimensions are allowed; renderers use them to flip the texture.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Sprite is a single drawable token placed on a layer.
type Sprite struct {
	// ID is the id the sprite is currently addressed by: local until the
	// creating event is acknowledged, canonical afterwards.
	ID Id `json:"id"`
	// Canonical is the server-assigned id, zero until acknowledged.
	Canonical Id `json:"canonical,omitempty"`
	// Texture is the media key drawn for this sprite. Media resolution is
	// owned by the content layer, the scene only carries the key.
	Texture string `json:"texture,omitempty"`
	Rect    Rect   `json:"rect"`
}

// SetRect moves or resizes the sprite, returning the event describing the
// change, or nil when the rect is unchanged.
func (s *Sprite) SetRect(to Rect) *SpriteMove {
	if s.Rect == to {
		return nil
	}
	from := s.Rect
	s.Rect = to
	return &SpriteMove{ID: s.ID, From: from, To: to}
}

// SetTexture swaps the sprite's texture, returning the event describing
// the change, or nil when the texture is unchanged.
func (s *Sprite) SetTexture(texture string) *SpriteTexture {
	if s.Texture == texture {
		return nil
	}
	old := s.Texture
	s.Texture = texture
	return &SpriteTexture{ID: s.ID, Old: old, New: texture}
}
