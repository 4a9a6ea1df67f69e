package handlers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Inbound websocket message types.
const (
	intentJoin   = "join"
	intentReady  = "ready"
	intentAnswer = "answer"
	intentLeave  = "leave"
)

// intentEnvelope is the raw wire shape of every inbound message. Pointer
// fields distinguish "absent" from zero values during validation.
type intentEnvelope struct {
	Type          string  `json:"type"`
	RoomID        string  `json:"room_id"`
	DisplayName   string  `json:"display_name"`
	Ready         *bool   `json:"ready"`
	QuestionIndex *int    `json:"question_index"`
	Value         *string `json:"value"`
}

type intent interface{ isIntent() }

type joinIntent struct {
	displayName string
}

type readyIntent struct {
	ready bool
}

type answerIntent struct {
	questionIndex int
	value         string
}

type leaveIntent struct{}

func (joinIntent) isIntent()   {}
func (readyIntent) isIntent()  {}
func (answerIntent) isIntent() {}
func (leaveIntent) isIntent()  {}

// parseIntent validates the envelope at the boundary and returns exactly one
// of the closed intent variants. The connection's room is authoritative; an
// envelope naming a different room is rejected before it reaches the engine.
func parseIntent(data []byte, roomID string) (intent, error) {
	var env intentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}
	if env.RoomID != "" && env.RoomID != roomID {
		return nil, fmt.Errorf("message targets room %s, connection is bound to %s", env.RoomID, roomID)
	}

	switch env.Type {
	case intentJoin:
		return joinIntent{displayName: strings.TrimSpace(env.DisplayName)}, nil
	case intentReady:
		if env.Ready == nil {
			return nil, fmt.Errorf("ready intent requires a ready flag")
		}
		return readyIntent{ready: *env.Ready}, nil
	case intentAnswer:
		if env.QuestionIndex == nil {
			return nil, fmt.Errorf("answer intent requires a question_index")
		}
		if env.Value == nil {
			return nil, fmt.Errorf("answer intent requires a value")
		}
		return answerIntent{questionIndex: *env.QuestionIndex, value: *env.Value}, nil
	case intentLeave:
		return leaveIntent{}, nil
	case "":
		return nil, fmt.Errorf("message type is required")
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
}
