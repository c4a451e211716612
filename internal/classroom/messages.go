package classroom

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"classroom-backend/internal/identity"
)

// Message types, shared by both directions where the name is reused.
const (
	TypeJoin            = "join"
	TypeKick            = "kick"
	TypeChatMessage     = "chat:message"
	TypeBoardOp         = "board:op"
	TypeBoardCursor     = "board:cursor"
	TypeBoardPermission = "board:permission"
	TypeMediaUpdate     = "media:update"
	TypeSignal          = "signal"

	TypeWelcome       = "welcome"
	TypePresenceJoin  = "presence:join"
	TypePresenceLeave = "presence:leave"
	TypeKicked        = "kicked"
)

// ErrUnknownType is returned by DecodeMessage for a type the server does not
// handle.
var ErrUnknownType = errors.New("classroom: unknown message type")

// Message is a decoded client-to-server message. The set of implementations
// is closed: only the types in this file satisfy it.
type Message interface {
	Type() string
	isMessage()
}

type JoinMessage struct {
	User  *JoinUser `json:"user"`
	Token string    `json:"token"`

	// Set by the connection reader when a Verifier is configured.
	requireVerified bool
	verified        *identity.User
}

// JoinUser is the identity a client claims for itself.
type JoinUser struct {
	ID   looseString `json:"id"`
	Name looseString `json:"name"`
	Role looseString `json:"role"`
}

type KickMessage struct {
	TargetID string `json:"targetId"`
}

type ChatMessage struct {
	Text string `json:"text"`
}

type BoardOpMessage struct {
	Op json.RawMessage `json:"op"`
}

type BoardCursorMessage struct {
	Cursor json.RawMessage `json:"cursor"`
}

type BoardPermissionMessage struct {
	Allowed json.RawMessage `json:"allowed"`
}

type MediaUpdateMessage struct {
	Media *struct {
		Mic    json.RawMessage `json:"mic"`
		Cam    json.RawMessage `json:"cam"`
		Screen json.RawMessage `json:"screen"`
	} `json:"media"`
}

type SignalMessage struct {
	TargetID string          `json:"targetId"`
	Data     json.RawMessage `json:"data"`
}

func (*JoinMessage) Type() string            { return TypeJoin }
func (*KickMessage) Type() string            { return TypeKick }
func (*ChatMessage) Type() string            { return TypeChatMessage }
func (*BoardOpMessage) Type() string         { return TypeBoardOp }
func (*BoardCursorMessage) Type() string     { return TypeBoardCursor }
func (*BoardPermissionMessage) Type() string { return TypeBoardPermission }
func (*MediaUpdateMessage) Type() string     { return TypeMediaUpdate }
func (*SignalMessage) Type() string          { return TypeSignal }

func (*JoinMessage) isMessage()            {}
func (*KickMessage) isMessage()            {}
func (*ChatMessage) isMessage()            {}
func (*BoardOpMessage) isMessage()         {}
func (*BoardCursorMessage) isMessage()     {}
func (*BoardPermissionMessage) isMessage() {}
func (*MediaUpdateMessage) isMessage()     {}
func (*SignalMessage) isMessage()          {}

// DecodeMessage parses one text frame payload.
func DecodeMessage(data []byte) (Message, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var msg Message
	switch envelope.Type {
	case TypeJoin:
		msg = &JoinMessage{}
	case TypeKick:
		msg = &KickMessage{}
	case TypeChatMessage:
		msg = &ChatMessage{}
	case TypeBoardOp:
		msg = &BoardOpMessage{}
	case TypeBoardCursor:
		msg = &BoardCursorMessage{}
	case TypeBoardPermission:
		msg = &BoardPermissionMessage{}
	case TypeMediaUpdate:
		msg = &MediaUpdateMessage{}
	case TypeSignal:
		msg = &SignalMessage{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, envelope.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
	}
	return msg, nil
}

// truthy reports whether a raw JSON value is present and not one of null,
// false, 0 or "".
func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", `""`:
		return false
	}
	if f, err := strconv.ParseFloat(string(v), 64); err == nil {
		return f != 0
	}
	return true
}

// looseString accepts a JSON string or number, so numeric user ids from the
// REST API survive.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = looseString(num.String())
	return nil
}

// Server-to-client events.

type welcomeEvent struct {
	Type            string        `json:"type"`
	ClientID        string        `json:"clientId"`
	Participants    []Participant `json:"participants"`
	BoardPermission bool          `json:"boardPermission"`
}

type presenceJoinEvent struct {
	Type        string      `json:"type"`
	Participant Participant `json:"participant"`
}

type presenceLeaveEvent struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participantId"`
}

type chatEvent struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Text       string `json:"text"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName,omitempty"`
	TS         int64  `json:"ts"`
}

type boardOpEvent struct {
	Type     string          `json:"type"`
	Op       json.RawMessage `json:"op"`
	AuthorID string          `json:"authorId"`
}

type boardCursorEvent struct {
	Type     string          `json:"type"`
	Cursor   json.RawMessage `json:"cursor"`
	AuthorID string          `json:"authorId"`
	Name     string          `json:"name"`
}

type boardPermissionEvent struct {
	Type     string `json:"type"`
	Allowed  bool   `json:"allowed"`
	AuthorID string `json:"authorId"`
}

type mediaUpdateEvent struct {
	Type     string `json:"type"`
	AuthorID string `json:"authorId"`
	Media    Media  `json:"media"`
}

type signalEvent struct {
	Type string          `json:"type"`
	From string          `json:"from"`
	Data json.RawMessage `json:"data"`
}

type kickedEvent struct {
	Type string `json:"type"`
	By   string `json:"by"`
}
