package classroom

import (
	"log"

	"classroom-backend/internal/identity"
)

// route applies one client message. Messages from a client that is no
// longer in a room are dropped.
func (h *Hub) route(cl *Client, msg Message) {
	room, ok := h.memberRoom(cl)
	if !ok {
		return
	}

	incReceived(msg.Type())

	switch m := msg.(type) {
	case *JoinMessage:
		h.handleJoin(room, cl, m)
	case *KickMessage:
		h.handleKick(room, cl, m)
	case *ChatMessage:
		h.handleChat(room, cl, m)
	case *BoardOpMessage:
		h.handleBoardOp(room, cl, m)
	case *BoardCursorMessage:
		h.handleBoardCursor(room, cl, m)
	case *BoardPermissionMessage:
		h.handleBoardPermission(room, cl, m)
	case *MediaUpdateMessage:
		h.handleMediaUpdate(room, cl, m)
	case *SignalMessage:
		h.handleSignal(room, cl, m)
	default:
		log.Printf("[ROOM]: no handler for message type %s", msg.Type())
	}
}

// joinIdentity decides who the joining client is. Without verification the
// payload is trusted as sent; with it, id and role come only from a verified
// token and an unverified client is a student.
func joinIdentity(m *JoinMessage) identity.User {
	u := identity.User{Name: defaultUserName, Role: identity.RoleStudent}
	if m.User != nil {
		u.ID = string(m.User.ID)
		if m.User.Name != "" {
			u.Name = string(m.User.Name)
		}
		if m.User.Role != "" {
			u.Role = string(m.User.Role)
		}
	}

	if !m.requireVerified {
		return u
	}

	if m.verified == nil {
		u.Role = identity.RoleStudent
		return u
	}

	u.ID = m.verified.ID
	u.Role = m.verified.Role
	if u.Role == "" {
		u.Role = identity.RoleStudent
	}
	if m.verified.Name != "" {
		u.Name = m.verified.Name
	}
	return u
}

func (h *Hub) handleJoin(room *Room, cl *Client, m *JoinMessage) {
	u := joinIdentity(m)
	if cl.User == nil {
		h.joinSeq++
		cl.joinSeq = h.joinSeq
	}
	cl.User = &u

	// The list is built before announcing the joiner so it never contains
	// the joiner itself.
	h.unicast(cl, welcomeEvent{
		Type:            TypeWelcome,
		ClientID:        cl.ID,
		Participants:    h.participants(room, cl),
		BoardPermission: room.boardPermission,
	})

	h.broadcast(room, presenceJoinEvent{Type: TypePresenceJoin, Participant: cl.participant()}, cl)
	log.Printf("[ROOM]: %s joined room %s as %s (%s)", cl.ID, room.ID, u.Role, u.Name)
}

func (h *Hub) handleKick(room *Room, cl *Client, m *KickMessage) {
	if !cl.isTeacher() {
		return
	}
	target, ok := room.clients[m.TargetID]
	if !ok {
		return
	}

	h.unicast(target, kickedEvent{Type: TypeKicked, By: cl.ID})
	target.Close()
	incDropped("kicked")
	log.Printf("[ROOM]: %s kicked %s from room %s", cl.ID, target.ID, room.ID)
}

func (h *Hub) handleChat(room *Room, cl *Client, m *ChatMessage) {
	h.broadcast(room, chatEvent{
		Type:       TypeChatMessage,
		ID:         h.newID(),
		Text:       m.Text,
		AuthorID:   cl.ID,
		AuthorName: cl.displayName(),
		TS:         h.now().UnixMilli(),
	}, nil)
}

func (h *Hub) handleBoardOp(room *Room, cl *Client, m *BoardOpMessage) {
	if !truthy(m.Op) {
		return
	}
	if h.enforceBoardPermission && !room.boardPermission && !cl.isTeacher() {
		return
	}
	h.broadcast(room, boardOpEvent{Type: TypeBoardOp, Op: m.Op, AuthorID: cl.ID}, cl)
}

func (h *Hub) handleBoardCursor(room *Room, cl *Client, m *BoardCursorMessage) {
	if !truthy(m.Cursor) {
		return
	}
	h.broadcast(room, boardCursorEvent{
		Type:     TypeBoardCursor,
		Cursor:   m.Cursor,
		AuthorID: cl.ID,
		Name:     cl.displayName(),
	}, cl)
}

func (h *Hub) handleBoardPermission(room *Room, cl *Client, m *BoardPermissionMessage) {
	if !cl.isTeacher() {
		return
	}
	room.boardPermission = truthy(m.Allowed)
	h.broadcast(room, boardPermissionEvent{
		Type:     TypeBoardPermission,
		Allowed:  room.boardPermission,
		AuthorID: cl.ID,
	}, nil)
}

func (h *Hub) handleMediaUpdate(room *Room, cl *Client, m *MediaUpdateMessage) {
	var media Media
	if m.Media != nil {
		media = Media{
			Mic:    truthy(m.Media.Mic),
			Cam:    truthy(m.Media.Cam),
			Screen: truthy(m.Media.Screen),
		}
	}
	cl.Media = media
	h.broadcast(room, mediaUpdateEvent{Type: TypeMediaUpdate, AuthorID: cl.ID, Media: media}, cl)
}

func (h *Hub) handleSignal(room *Room, cl *Client, m *SignalMessage) {
	if m.TargetID == "" || !truthy(m.Data) {
		return
	}
	target, ok := room.clients[m.TargetID]
	if !ok {
		return
	}
	h.unicast(target, signalEvent{Type: TypeSignal, From: cl.ID, Data: m.Data})
}
