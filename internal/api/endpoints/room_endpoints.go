package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"classroom-backend/internal/classroom"
)

// RoomLister reads room snapshots. *classroom.Hub satisfies it.
type RoomLister interface {
	Rooms(ctx context.Context) ([]classroom.RoomInfo, error)
	Room(ctx context.Context, id string) (classroom.RoomInfo, bool, error)
}

type RoomEndpoints interface {
	Rooms(http.ResponseWriter, *http.Request) error
	Room(http.ResponseWriter, *http.Request) error
}

type RoomsResponse struct {
	Rooms []classroom.RoomInfo `json:"rooms"`
}

type roomEndpoints struct {
	rooms      RoomLister
	roomPrefix string
}

// NewRoomEndpoints serves the room list at {prefix}/rooms and single rooms
// at {prefix}/rooms/{id}.
func NewRoomEndpoints(rooms RoomLister, prefix string) RoomEndpoints {
	return &roomEndpoints{
		rooms:      rooms,
		roomPrefix: strings.TrimRight(prefix, "/") + "/rooms/",
	}
}

func (h *roomEndpoints) Rooms(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListRooms,
	})
}

func (h *roomEndpoints) Room(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleGetRoom,
	})
}

func (h *roomEndpoints) handleListRooms(w http.ResponseWriter, r *http.Request) error {
	rooms, err := h.rooms.Rooms(r.Context())
	if err != nil {
		return registryError(err)
	}
	return WriteJSON(w, http.StatusOK, RoomsResponse{Rooms: rooms})
}

func (h *roomEndpoints) handleGetRoom(w http.ResponseWriter, r *http.Request) error {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, h.roomPrefix), "/")
	if id == "" || strings.Contains(id, "/") {
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Room not found.",
		}
	}

	info, ok, err := h.rooms.Room(r.Context(), id)
	if err != nil {
		return registryError(err)
	}
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    "Room not found.",
		}
	}
	return WriteJSON(w, http.StatusOK, info)
}

func registryError(err error) error {
	if errors.Is(err, classroom.ErrHubStopped) {
		return &HTTPError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Room registry unavailable.",
			ErrorLog:   err,
		}
	}
	return fmt.Errorf("read room registry: %w", err)
}
