package scene

// Ack types.
const (
	// TypeAckApproval confirms an event that created no new identity.
	TypeAckApproval Type = "ack.approval"
	// TypeAckRejection reports that an event was not applied.
	TypeAckRejection Type = "ack.rejection"
	// TypeAckLayerCreate reconciles a layer's local id with its canonical id.
	TypeAckLayerCreate Type = "ack.layer"
	// TypeAckSpriteCreate reconciles a sprite's local id with its canonical id.
	TypeAckSpriteCreate Type = "ack.sprite"
	// TypeAckGroupCreate reconciles a group's local id with its canonical id.
	TypeAckGroupCreate Type = "ack.group"
)

// SceneEventAck correlates an applied SceneEvent with its outcome on the
// authoritative replica. Identity acks carry the local-to-canonical id
// mapping the originating client needs to reconcile its speculative state.
type SceneEventAck interface {
	// AckType returns the wire tag for this variant.
	AckType() Type
	sceneEventAck()
}

// AckApproval confirms an event without identity changes.
type AckApproval struct{}

// AckRejection reports that the event was not applied; the originating
// client must unwind its speculative application.
type AckRejection struct{}

// AckLayerCreate reconciles a layer created under a local id. Z is the
// z value the server settled on, which may differ from the requested one
// when it collided with an existing layer.
type AckLayerCreate struct {
	Local     Id  `json:"local"`
	Canonical Id  `json:"canonical"`
	Z         int `json:"z"`
}

// AckSpriteCreate reconciles a sprite created under a local id.
type AckSpriteCreate struct {
	Local     Id `json:"local"`
	Canonical Id `json:"canonical"`
}

// AckGroupCreate reconciles a group created under a local id.
type AckGroupCreate struct {
	Local     Id `json:"local"`
	Canonical Id `json:"canonical"`
}

func (AckApproval) AckType() Type      { return TypeAckApproval }
func (AckRejection) AckType() Type     { return TypeAckRejection }
func (*AckLayerCreate) AckType() Type  { return TypeAckLayerCreate }
func (*AckSpriteCreate) AckType() Type { return TypeAckSpriteCreate }
func (*AckGroupCreate) AckType() Type  { return TypeAckGroupCreate }

func (AckApproval) sceneEventAck()      {}
func (AckRejection) sceneEventAck()     {}
func (*AckLayerCreate) sceneEventAck()  {}
func (*AckSpriteCreate) sceneEventAck() {}
func (*AckGroupCreate) sceneEventAck()  {}

// Rejected reports whether the ack signals that the event was dropped.
func Rejected(ack SceneEventAck) bool {
	_, ok := ack.(AckRejection)
	return ok
}
