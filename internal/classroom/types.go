package classroom

import "classroom-backend/internal/identity"

// DefaultRoomID is used when a connection names no room.
const DefaultRoomID = "default"

const (
	defaultUserName = "Guest"
)

// Room is one live classroom session. It exists only while it has clients.
type Room struct {
	ID              string
	clients         map[string]*Client
	boardPermission bool
}

func newRoom(id string) *Room {
	return &Room{
		ID:      id,
		clients: make(map[string]*Client),
	}
}

// Media is a participant's last announced device state.
type Media struct {
	Mic    bool `json:"mic"`
	Cam    bool `json:"cam"`
	Screen bool `json:"screen"`
}

// Participant is how a joined client is presented to the rest of its room.
type Participant struct {
	ClientID string        `json:"clientId"`
	User     identity.User `json:"user"`
	Media    Media         `json:"media"`
}

// RoomInfo is a point-in-time view of a room for the HTTP API.
type RoomInfo struct {
	ID              string `json:"id"`
	Clients         int    `json:"clients"`
	Participants    int    `json:"participants"`
	BoardPermission bool   `json:"boardPermission"`
}
