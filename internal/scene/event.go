package scene

// Type identifies the kind of a scene event or acknowledgment on the wire.
type Type string

// Layer events.
const (
	// TypeLayerCreate records the creation of a layer.
	TypeLayerCreate Type = "layer.create"
	// TypeLayerRemove records the removal of a layer.
	TypeLayerRemove Type = "layer.remove"
	// TypeLayerRename records a layer title change.
	TypeLayerRename Type = "layer.rename"
	// TypeLayerVisibility records a layer visibility toggle.
	TypeLayerVisibility Type = "layer.visibility"
	// TypeLayerLocked records a layer lock toggle.
	TypeLayerLocked Type = "layer.locked"
	// TypeLayerLower records a layer being sent to the bottom of the stack.
	TypeLayerLower Type = "layer.lower"
	// TypeLayerRaise records a layer being brought to the top of the stack.
	TypeLayerRaise Type = "layer.raise"
)

// Sprite events.
const (
	// TypeSpriteCreate records a sprite being placed on a layer.
	TypeSpriteCreate Type = "sprite.create"
	// TypeSpriteRemove records a sprite being removed from its layer.
	TypeSpriteRemove Type = "sprite.remove"
	// TypeSpriteMove records a sprite move or resize.
	TypeSpriteMove Type = "sprite.move"
	// TypeSpriteTexture records a sprite texture swap.
	TypeSpriteTexture Type = "sprite.texture"
	// TypeSpriteLayer records a sprite moving between layers.
	TypeSpriteLayer Type = "sprite.layer"
)

// Group events.
const (
	// TypeGroupCreate records the creation of a sprite group.
	TypeGroupCreate Type = "group.create"
	// TypeGroupDelete records the deletion of a sprite group.
	TypeGroupDelete Type = "group.delete"
	// TypeGroupAdd records a sprite joining a group.
	TypeGroupAdd Type = "group.add"
	// TypeGroupRemove records a sprite leaving a group.
	TypeGroupRemove Type = "group.remove"
)

// Scene events.
const (
	// TypeSceneTitle records a scene title change.
	TypeSceneTitle Type = "scene.title"
	// TypeSceneDimensions records a scene resize.
	TypeSceneDimensions Type = "scene.dimensions"
	// TypeBatch groups several events applied as one unit.
	TypeBatch Type = "batch"
)

// SceneEvent is one mutation of a scene. The variant set is closed: every
// consumer (apply, unwind, permission classification, wire codec) switches
// exhaustively over the concrete types so a new variant is a
// compile-time-visible change at every site.
type SceneEvent interface {
	// EventType returns the wire tag for this variant.
	EventType() Type
	sceneEvent()
}

// LayerZ records one layer's z value, in stack order, so reorder events
// can restore the exact previous arrangement.
type LayerZ struct {
	Layer Id  `json:"layer"`
	Z     int `json:"z"`
}

// LayerCreate creates a new layer. ID is local when client-minted and
// canonical when replicated from the server.
type LayerCreate struct {
	ID    Id     `json:"id"`
	Title string `json:"title"`
	Z     int    `json:"z"`
}

// LayerRemove removes a layer. Removed carries the full layer and its
// stack index so the event can be inverted exactly.
type LayerRemove struct {
	ID      Id    `json:"id"`
	Index   int   `json:"index"`
	Removed Layer `json:"removed"`
}

// LayerRename retitles a layer.
type LayerRename struct {
	ID  Id     `json:"id"`
	Old string `json:"old"`
	New string `json:"new"`
}

// LayerVisibility shows or hides a layer. Old carries the prior flag so
// the inverse restores it rather than assuming the event flipped it.
type LayerVisibility struct {
	ID      Id   `json:"id"`
	Old     bool `json:"old"`
	Visible bool `json:"visible"`
}

// LayerLocked locks or unlocks a layer against sprite selection. Old
// carries the prior flag for the inverse.
type LayerLocked struct {
	ID     Id   `json:"id"`
	Old    bool `json:"old"`
	Locked bool `json:"locked"`
}

// LayerLower sends a layer to the bottom of the stack, renumbering every
// layer to a contiguous descending sequence starting at -1 from the top.
// Restore holds each layer's prior z in prior stack order.
type LayerLower struct {
	ID      Id       `json:"id"`
	Restore []LayerZ `json:"restore"`
}

// LayerRaise brings a layer to the top of the stack, renumbering every
// layer to a contiguous ascending sequence ending at 1 at the bottom.
// Restore holds each layer's prior z in prior stack order.
type LayerRaise struct {
	ID      Id       `json:"id"`
	Restore []LayerZ `json:"restore"`
}

// SpriteCreate places a sprite on a layer.
type SpriteCreate struct {
	Sprite Sprite `json:"sprite"`
	Layer  Id     `json:"layer"`
}

// SpriteRemove removes a sprite from a layer. Removed and Index carry the
// sprite and its position for exact inversion.
type SpriteRemove struct {
	ID      Id     `json:"id"`
	Layer   Id     `json:"layer"`
	Index   int    `json:"index"`
	Removed Sprite `json:"removed"`
}

// SpriteMove moves or resizes a sprite.
type SpriteMove struct {
	ID   Id   `json:"id"`
	From Rect `json:"from"`
	To   Rect `json:"to"`
}

// SpriteTexture swaps a sprite's texture key.
type SpriteTexture struct {
	ID  Id     `json:"id"`
	Old string `json:"old"`
	New string `json:"new"`
}

// SpriteLayer moves a sprite from one layer to another.
type SpriteLayer struct {
	ID   Id `json:"id"`
	From Id `json:"from"`
	To   Id `json:"to"`
}

// GroupCreate creates a sprite group.
type GroupCreate struct {
	ID      Id   `json:"id"`
	Sprites []Id `json:"sprites,omitempty"`
}

// GroupDelete deletes a sprite group. Sprites carries the membership for
// exact inversion.
type GroupDelete struct {
	ID      Id   `json:"id"`
	Sprites []Id `json:"sprites,omitempty"`
}

// GroupAdd adds a sprite to a group. Adding is idempotent; Had records
// whether the sprite was already a member so unwinding an effect-free add
// does not remove it.
type GroupAdd struct {
	Group  Id   `json:"group"`
	Sprite Id   `json:"sprite"`
	Had    bool `json:"had,omitempty"`
}

// GroupRemove removes a sprite from a group. Had records whether the
// sprite was a member before the event.
type GroupRemove struct {
	Group  Id   `json:"group"`
	Sprite Id   `json:"sprite"`
	Had    bool `json:"had,omitempty"`
}

// SceneTitle retitles the scene.
type SceneTitle struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// SceneDimensions resizes the scene grid.
type SceneDimensions struct {
	OldW int `json:"old_w"`
	OldH int `json:"old_h"`
	NewW int `json:"new_w"`
	NewH int `json:"new_h"`
}

// Batch applies several events as one unit. Batches are produced by the
// server for compound changes; clients cannot submit them directly.
type Batch struct {
	Events []SceneEvent `json:"events"`
}

func (*LayerCreate) EventType() Type     { return TypeLayerCreate }
func (*LayerRemove) EventType() Type     { return TypeLayerRemove }
func (*LayerRename) EventType() Type     { return TypeLayerRename }
func (*LayerVisibility) EventType() Type { return TypeLayerVisibility }
func (*LayerLocked) EventType() Type     { return TypeLayerLocked }
func (*LayerLower) EventType() Type      { return TypeLayerLower }
func (*LayerRaise) EventType() Type      { return TypeLayerRaise }
func (*SpriteCreate) EventType() Type    { return TypeSpriteCreate }
func (*SpriteRemove) EventType() Type    { return TypeSpriteRemove }
func (*SpriteMove) EventType() Type      { return TypeSpriteMove }
func (*SpriteTexture) EventType() Type   { return TypeSpriteTexture }
func (*SpriteLayer) EventType() Type     { return TypeSpriteLayer }
func (*GroupCreate) EventType() Type     { return TypeGroupCreate }
func (*GroupDelete) EventType() Type     { return TypeGroupDelete }
func (*GroupAdd) EventType() Type        { return TypeGroupAdd }
func (*GroupRemove) EventType() Type     { return TypeGroupRemove }
func (*SceneTitle) EventType() Type      { return TypeSceneTitle }
func (*SceneDimensions) EventType() Type { return TypeSceneDimensions }
func (*Batch) EventType() Type           { return TypeBatch }

func (*LayerCreate) sceneEvent()     {}
func (*LayerRemove) sceneEvent()     {}
func (*LayerRename) sceneEvent()     {}
func (*LayerVisibility) sceneEvent() {}
func (*LayerLocked) sceneEvent()     {}
func (*LayerLower) sceneEvent()      {}
func (*LayerRaise) sceneEvent()      {}
func (*SpriteCreate) sceneEvent()    {}
func (*SpriteRemove) sceneEvent()    {}
func (*SpriteMove) sceneEvent()      {}
func (*SpriteTexture) sceneEvent()   {}
func (*SpriteLayer) sceneEvent()     {}
func (*GroupCreate) sceneEvent()     {}
func (*GroupDelete) sceneEvent()     {}
func (*GroupAdd) sceneEvent()        {}
func (*GroupRemove) sceneEvent()     {}
func (*SceneTitle) sceneEvent()      {}
func (*SceneDimensions) sceneEvent() {}
func (*Batch) sceneEvent()           {}
