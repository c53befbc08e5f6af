package scene

import (
	"encoding/json"
	"fmt"
)

// Wire schema version for event and ack envelopes. Client and server
// binaries serialize independently, so the envelope is tagged and
// versioned rather than relying on struct layout.
const wireSchema = 1

type envelope struct {
	Schema  int             `json:"schema"`
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeEvent serializes a scene event into its wire envelope.
func EncodeEvent(ev SceneEvent) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("encode event: nil event")
	}
	payload, err := marshalEventPayload(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Schema: wireSchema, Type: ev.EventType(), Payload: payload})
}

// batchWire carries batch children as encoded envelopes so nesting stays
// self-describing.
type batchWire struct {
	Events []json.RawMessage `json:"events"`
}

func marshalEventPayload(ev SceneEvent) ([]byte, error) {
	if b, ok := ev.(*Batch); ok {
		wire := batchWire{Events: make([]json.RawMessage, 0, len(b.Events))}
		for _, child := range b.Events {
			data, err := EncodeEvent(child)
			if err != nil {
				return nil, err
			}
			wire.Events = append(wire.Events, data)
		}
		return json.Marshal(wire)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.EventType(), err)
	}
	return payload, nil
}

// DecodeEvent deserializes a scene event from its wire envelope.
func DecodeEvent(data []byte) (SceneEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if env.Schema != wireSchema {
		return nil, fmt.Errorf("decode event: unsupported schema %d", env.Schema)
	}

	var ev SceneEvent
	switch env.Type {
	case TypeLayerCreate:
		ev = &LayerCreate{}
	case TypeLayerRemove:
		ev = &LayerRemove{}
	case TypeLayerRename:
		ev = &LayerRename{}
	case TypeLayerVisibility:
		ev = &LayerVisibility{}
	case TypeLayerLocked:
		ev = &LayerLocked{}
	case TypeLayerLower:
		ev = &LayerLower{}
	case TypeLayerRaise:
		ev = &LayerRaise{}
	case TypeSpriteCreate:
		ev = &SpriteCreate{}
	case TypeSpriteRemove:
		ev = &SpriteRemove{}
	case TypeSpriteMove:
		ev = &SpriteMove{}
	case TypeSpriteTexture:
		ev = &SpriteTexture{}
	case TypeSpriteLayer:
		ev = &SpriteLayer{}
	case TypeGroupCreate:
		ev = &GroupCreate{}
	case TypeGroupDelete:
		ev = &GroupDelete{}
	case TypeGroupAdd:
		ev = &GroupAdd{}
	case TypeGroupRemove:
		ev = &GroupRemove{}
	case TypeSceneTitle:
		ev = &SceneTitle{}
	case TypeSceneDimensions:
		ev = &SceneDimensions{}
	case TypeBatch:
		var wire batchWire
		if err := json.Unmarshal(env.Payload, &wire); err != nil {
			return nil, fmt.Errorf("decode batch: %w", err)
		}
		batch := &Batch{}
		for _, raw := range wire.Events {
			child, err := DecodeEvent(raw)
			if err != nil {
				return nil, err
			}
			batch.Events = append(batch.Events, child)
		}
		return batch, nil
	default:
		return nil, fmt.Errorf("decode event: unknown type %q", env.Type)
	}
	if err := json.Unmarshal(env.Payload, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return ev, nil
}

// EncodeAck serializes an acknowledgment into its wire envelope.
func EncodeAck(ack SceneEventAck) ([]byte, error) {
	if ack == nil {
		return nil, fmt.Errorf("encode ack: nil ack")
	}
	payload, err := json.Marshal(ack)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ack.AckType(), err)
	}
	return json.Marshal(envelope{Schema: wireSchema, Type: ack.AckType(), Payload: payload})
}

// DecodeAck deserializes an acknowledgment from its wire envelope.
func DecodeAck(data []byte) (SceneEventAck, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode ack: %w", err)
	}
	if env.Schema != wireSchema {
		return nil, fmt.Errorf("decode ack: unsupported schema %d", env.Schema)
	}

	switch env.Type {
	case TypeAckApproval:
		return AckApproval{}, nil
	case TypeAckRejection:
		return AckRejection{}, nil
	case TypeAckLayerCreate:
		ack := &AckLayerCreate{}
		if err := json.Unmarshal(env.Payload, ack); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ack, nil
	case TypeAckSpriteCreate:
		ack := &AckSpriteCreate{}
		if err := json.Unmarshal(env.Payload, ack); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ack, nil
	case TypeAckGroupCreate:
		ack := &AckGroupCreate{}
		if err := json.Unmarshal(env.Payload, ack); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ack, nil
	default:
		return nil, fmt.Errorf("decode ack: unknown type %q", env.Type)
	}
}
