package game

import (
	"encoding/json"

	apperrors "github.com/lukeharby/wildspace/internal/platform/errors"
	"github.com/lukeharby/wildspace/internal/scene"
)

// Server message kinds.
const (
	// MsgAck correlates an acknowledgment with a client message id.
	MsgAck = "ack"
	// MsgSceneUpdate broadcasts an applied event from another client.
	MsgSceneUpdate = "scene.update"
	// MsgSceneReplace replaces the client's scene with a full snapshot.
	MsgSceneReplace = "scene.replace"
	// MsgUser tells the client its user id and role on join.
	MsgUser = "user"
)

// ClientMessage is one frame sent by a client. The client keeps the
// message until the matching ack arrives so a rejection can unwind the
// speculative local application.
type ClientMessage struct {
	ID    int64           `json:"id"`
	Event json.RawMessage `json:"event"`
}

// DecodeClientMessage parses a client frame and its scene event.
func DecodeClientMessage(data []byte) (ClientMessage, scene.SceneEvent, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, nil, apperrors.Wrap(apperrors.CodeSceneEventInvalid, "decode client message", err)
	}
	ev, err := scene.DecodeEvent(msg.Event)
	if err != nil {
		return ClientMessage{}, nil, apperrors.Wrap(apperrors.CodeSceneEventInvalid, "decode client event", err)
	}
	return msg, ev, nil
}

// ServerMessage is one frame sent to a client: an ack for its own
// message, an event broadcast, a full scene snapshot, or the join notice.
type ServerMessage struct {
	Type     string          `json:"type"`
	ID       int64           `json:"id,omitempty"`
	Ack      json.RawMessage `json:"ack,omitempty"`
	Event    json.RawMessage `json:"event,omitempty"`
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
	UserID   int64           `json:"user_id,omitempty"`
	Role     string          `json:"role,omitempty"`
}

func encodeAckMessage(id int64, ack scene.SceneEventAck) ([]byte, error) {
	data, err := scene.EncodeAck(ack)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ServerMessage{Type: MsgAck, ID: id, Ack: data})
}

func encodeUpdateMessage(ev scene.SceneEvent) ([]byte, error) {
	data, err := scene.EncodeEvent(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ServerMessage{Type: MsgSceneUpdate, Event: data})
}

func encodeReplaceMessage(snapshot []byte) ([]byte, error) {
	return json.Marshal(ServerMessage{Type: MsgSceneReplace, Snapshot: snapshot})
}

func encodeUserMessage(userID int64, role string) ([]byte, error) {
	return json.Marshal(ServerMessage{Type: MsgUser, UserID: userID, Role: role})
}
