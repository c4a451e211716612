package classroom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"time"

	"classroom-backend/internal/websocket"
	"classroom-backend/utils"
)

// ErrHubStopped is returned by calls made after Run has returned.
var ErrHubStopped = errors.New("classroom: hub stopped")

type eventKind int

const (
	eventRegister eventKind = iota
	eventUnregister
	eventMessage
	eventSnapshot
)

type event struct {
	kind   eventKind
	client *Client
	msg    Message
	reply  chan []RoomInfo
}

// HubOptions configures room policy.
type HubOptions struct {
	// EnforceBoardPermission drops board:op from non-teachers while the
	// room's board permission is off.
	EnforceBoardPermission bool
}

// Hub is the room registry. The room map is owned by the goroutine running
// Run; everything else reaches it through a single ordered event channel, so
// events from one connection are applied in the order they were read.
type Hub struct {
	rooms   map[string]*Room
	events  chan event
	done    chan struct{}
	joinSeq uint64

	enforceBoardPermission bool

	now   func() time.Time
	newID func() string
}

func NewHub(opts HubOptions) *Hub {
	return &Hub{
		rooms:                  make(map[string]*Room),
		events:                 make(chan event),
		done:                   make(chan struct{}),
		enforceBoardPermission: opts.EnforceBoardPermission,
		now:                    time.Now,
		newID:                  utils.NewMessageID,
	}
}

// Run processes events until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case ev := <-h.events:
			h.handle(ev)
		}
	}
}

func (h *Hub) submit(ev event) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

// Register adds a freshly upgraded client to its room.
func (h *Hub) Register(cl *Client) bool {
	return h.submit(event{kind: eventRegister, client: cl})
}

// Unregister removes a client from its room. Repeated calls are harmless.
func (h *Hub) Unregister(cl *Client) {
	h.submit(event{kind: eventUnregister, client: cl})
}

// Dispatch routes a decoded message from cl.
func (h *Hub) Dispatch(cl *Client, msg Message) {
	h.submit(event{kind: eventMessage, client: cl, msg: msg})
}

// Rooms returns a snapshot of every live room, ordered by id.
func (h *Hub) Rooms(ctx context.Context) ([]RoomInfo, error) {
	reply := make(chan []RoomInfo, 1)

	select {
	case h.events <- event{kind: eventSnapshot, reply: reply}:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case rooms := <-reply:
		return rooms, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Room returns a snapshot of one room. ok is false when the room does not
// exist; looking a room up this way never creates it.
func (h *Hub) Room(ctx context.Context, id string) (info RoomInfo, ok bool, err error) {
	rooms, err := h.Rooms(ctx)
	if err != nil {
		return RoomInfo{}, false, err
	}
	for _, r := range rooms {
		if r.ID == id {
			return r, true, nil
		}
	}
	return RoomInfo{}, false, nil
}

func (h *Hub) handle(ev event) {
	switch ev.kind {
	case eventRegister:
		h.addClient(ev.client)
	case eventUnregister:
		h.removeClient(ev.client)
	case eventMessage:
		h.route(ev.client, ev.msg)
	case eventSnapshot:
		ev.reply <- h.snapshot()
	}
}

// getRoom returns the room for id, creating it on first reference.
func (h *Hub) getRoom(id string) *Room {
	room, ok := h.rooms[id]
	if !ok {
		room = newRoom(id)
		h.rooms[id] = room
		setRooms(len(h.rooms))
	}
	return room
}

// memberRoom returns cl's room if cl is still registered in it.
func (h *Hub) memberRoom(cl *Client) (*Room, bool) {
	room, ok := h.rooms[cl.RoomID]
	if !ok || room.clients[cl.ID] != cl {
		return nil, false
	}
	return room, true
}

func (h *Hub) addClient(cl *Client) {
	room := h.getRoom(cl.RoomID)
	room.clients[cl.ID] = cl
	incConnections()
	log.Printf("[ROOM]: client %s connected to room %s (%d clients)", cl.ID, room.ID, len(room.clients))
}

// removeClient is the single disconnect cleanup path. It is a no-op for a
// client that is no longer a member, which makes it run at most once.
func (h *Hub) removeClient(cl *Client) {
	room, ok := h.memberRoom(cl)
	if !ok {
		return
	}

	delete(room.clients, cl.ID)
	decConnections()

	if cl.User != nil {
		h.broadcast(room, presenceLeaveEvent{Type: TypePresenceLeave, ParticipantID: cl.ID}, nil)
	}

	if len(room.clients) == 0 {
		delete(h.rooms, room.ID)
		setRooms(len(h.rooms))
		log.Printf("[ROOM]: room %s closed", room.ID)
	}
}

func (h *Hub) shutdown() {
	for _, room := range h.rooms {
		for _, cl := range room.clients {
			cl.Close()
		}
	}
}

func (h *Hub) snapshot() []RoomInfo {
	out := make([]RoomInfo, 0, len(h.rooms))
	for _, room := range h.rooms {
		info := RoomInfo{
			ID:              room.ID,
			Clients:         len(room.clients),
			BoardPermission: room.boardPermission,
		}
		for _, cl := range room.clients {
			if cl.User != nil {
				info.Participants++
			}
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// participants lists the joined members of room other than except, in join
// order.
func (h *Hub) participants(room *Room, except *Client) []Participant {
	members := make([]*Client, 0, len(room.clients))
	for _, cl := range room.clients {
		if cl != except && cl.User != nil {
			members = append(members, cl)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].joinSeq < members[j].joinSeq })

	out := make([]Participant, len(members))
	for i, cl := range members {
		out[i] = cl.participant()
	}
	return out
}

// encodeEvent renders v as one text frame. HTML escaping is off so relayed
// payloads keep their characters as sent.
func encodeEvent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return websocket.EncodeText(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// broadcast sends v to every member of room except the given client, which
// may be nil.
func (h *Hub) broadcast(room *Room, v any, except *Client) {
	frame, err := encodeEvent(v)
	if err != nil {
		log.Printf("[ROOM]: error encoding broadcast for room %s: %v", room.ID, err)
		return
	}

	delivered := 0
	for _, cl := range room.clients {
		if cl == except {
			continue
		}
		if cl.Send(frame) {
			delivered++
		}
	}
	if delivered > 0 {
		addDelivered(delivered)
	}
}

func (h *Hub) unicast(cl *Client, v any) {
	frame, err := encodeEvent(v)
	if err != nil {
		log.Printf("[ROOM]: error encoding message for client %s: %v", cl.ID, err)
		return
	}
	if cl.Send(frame) {
		addDelivered(1)
	}
}
