package classroom

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"

	"classroom-backend/internal/identity"
)

const testWait = 2 * time.Second

func startServer(t *testing.T, opts HandlerOptions) (*Hub, *httptest.Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(HubOptions{})
	go hub.Run(ctx)

	srv := httptest.NewServer(NewHandler(hub, opts))
	t.Cleanup(func() {
		cancel()
		<-hub.done
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *gws.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if query != "" {
		url += "?" + query
	}
	conn, resp, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d, want 101", resp.StatusCode)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil returns the next event of type typ, skipping anything else.
func readUntil(t *testing.T, conn *gws.Conn, typ string) map[string]any {
	t.Helper()
	msg, _ := readCollect(t, conn, typ)
	return msg
}

// readCollect also returns the types of the events skipped on the way.
func readCollect(t *testing.T, conn *gws.Conn, typ string) (map[string]any, []string) {
	t.Helper()

	var skipped []string
	conn.SetReadDeadline(time.Now().Add(testWait))
	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg["type"] == typ {
			return msg, skipped
		}
		skipped = append(skipped, msg["type"].(string))
	}
}

func waitForRoom(t *testing.T, hub *Hub, id string, want func(RoomInfo, bool) bool) {
	t.Helper()

	deadline := time.Now().Add(testWait)
	for time.Now().Before(deadline) {
		info, ok, err := hub.Room(context.Background(), id)
		if err != nil {
			t.Fatalf("Room(%s): %v", id, err)
		}
		if want(info, ok) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("room %s never reached the expected state", id)
}

func TestHandlerClassroomSession(t *testing.T) {
	hub, srv := startServer(t, HandlerOptions{})

	teacher := dial(t, srv, "roomId=r1")
	teacher.WriteJSON(map[string]any{
		"type": "join",
		"user": map[string]any{"id": "t-1", "name": "Tess", "role": "teacher"},
	})
	welcome := readUntil(t, teacher, TypeWelcome)
	teacherID := welcome["clientId"].(string)

	student := dial(t, srv, "roomId=r1")
	student.WriteJSON(map[string]any{
		"type": "join",
		"user": map[string]any{"id": "s-1", "name": "Sam", "role": "student"},
	})
	welcome = readUntil(t, student, TypeWelcome)
	studentID := welcome["clientId"].(string)
	if ps := welcome["participants"].([]any); len(ps) != 1 {
		t.Fatalf("student sees %d participants, want 1", len(ps))
	}

	joined := readUntil(t, teacher, TypePresenceJoin)
	if joined["participant"].(map[string]any)["clientId"] != studentID {
		t.Fatalf("presence:join = %v", joined)
	}

	teacher.WriteJSON(map[string]any{"type": "board:permission", "allowed": true})
	for _, conn := range []*gws.Conn{teacher, student} {
		perm := readUntil(t, conn, TypeBoardPermission)
		if perm["allowed"] != true || perm["authorId"] != teacherID {
			t.Fatalf("board:permission = %v", perm)
		}
	}

	// Garbage is skipped without closing the connection.
	student.WriteMessage(gws.TextMessage, []byte("not json"))
	student.WriteJSON(map[string]any{"type": "board:clear"})
	student.WriteJSON(map[string]any{"type": "chat:message", "text": "hi"})
	for _, conn := range []*gws.Conn{teacher, student} {
		chat := readUntil(t, conn, TypeChatMessage)
		if chat["text"] != "hi" || chat["authorId"] != studentID || chat["authorName"] != "Sam" {
			t.Fatalf("chat:message = %v", chat)
		}
	}

	waitForRoom(t, hub, "r1", func(info RoomInfo, ok bool) bool {
		return ok && info.Clients == 2 && info.Participants == 2 && info.BoardPermission
	})

	student.WriteMessage(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""))
	left := readUntil(t, teacher, TypePresenceLeave)
	if left["participantId"] != studentID {
		t.Fatalf("presence:leave = %v", left)
	}

	teacher.Close()
	waitForRoom(t, hub, "r1", func(_ RoomInfo, ok bool) bool { return !ok })
}

func TestHandlerDefaultRoom(t *testing.T) {
	hub, srv := startServer(t, HandlerOptions{})

	dial(t, srv, "")

	waitForRoom(t, hub, DefaultRoomID, func(info RoomInfo, ok bool) bool {
		return ok && info.Clients == 1 && info.Participants == 0
	})
}

func TestHandlerAnswersPing(t *testing.T) {
	_, srv := startServer(t, HandlerOptions{})
	conn := dial(t, srv, "roomId=r1")

	pongs := make(chan string, 1)
	conn.SetPongHandler(func(data string) error {
		pongs <- data
		return nil
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteControl(gws.PingMessage, []byte("abc"), time.Now().Add(testWait)); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	select {
	case got := <-pongs:
		if got != "abc" {
			t.Fatalf("pong payload = %q, want abc", got)
		}
	case <-time.After(testWait):
		t.Fatal("no pong received")
	}
}

func TestHandlerFramesSentWithHandshake(t *testing.T) {
	_, srv := startServer(t, HandlerOptions{})

	conn, err := net.Dial("tcp", srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	mask := []byte{0x01, 0x02, 0x03, 0x04}
	ping := []byte{0x89, 0x80 | 3}
	ping = append(ping, mask...)
	for i, b := range []byte("abc") {
		ping = append(ping, b^mask[i%4])
	}

	request := "GET /ws?roomId=r1 HTTP/1.1\r\n" +
		"Host: classroom.test\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"

	conn.SetDeadline(time.Now().Add(testWait))
	if _, err := conn.Write(append([]byte(request), ping...)); err != nil {
		t.Fatalf("write: %v", err)
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		t.Fatalf("read handshake: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d, want 101", resp.StatusCode)
	}
	if got := resp.Header.Get("Sec-WebSocket-Accept"); got != "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=" {
		t.Fatalf("accept = %q", got)
	}

	pong := make([]byte, 5)
	if _, err := io.ReadFull(br, pong); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if string(pong) != "\x8a\x03abc" {
		t.Fatalf("pong frame = %x", pong)
	}
}

func TestHandlerMissingKeyClosesSilently(t *testing.T) {
	_, srv := startServer(t, HandlerOptions{})

	conn, err := net.Dial("tcp", srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(testWait))
	request := "GET /ws HTTP/1.1\r\nHost: classroom.test\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n\r\n"
	if _, err := conn.Write([]byte(request)); err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, 64)
	n, err := conn.Read(buf)
	if n != 0 || err != io.EOF {
		t.Fatalf("read = %q, %v; want nothing and EOF", buf[:n], err)
	}
}

func TestHandlerRejectsPlainHTTP(t *testing.T) {
	_, srv := startServer(t, HandlerOptions{})

	resp, err := http.Get(srv.URL + "/ws")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("status = %d, want 426", resp.StatusCode)
	}
}

func TestHandlerVerifiedIdentity(t *testing.T) {
	const secret = "classroom-secret"
	hub, srv := startServer(t, HandlerOptions{Verifier: identity.NewJWTVerifier(secret)})

	token, err := identity.CreateToken(secret, identity.User{ID: "t-1", Name: "Tess", Role: identity.RoleTeacher}, 0)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	teacher := dial(t, srv, "roomId=r1")
	teacher.WriteJSON(map[string]any{
		"type":  "join",
		"token": token,
		"user":  map[string]any{"name": "Someone", "role": "student"},
	})
	teacherID := readUntil(t, teacher, TypeWelcome)["clientId"]

	impostor := dial(t, srv, "roomId=r1")
	impostor.WriteJSON(map[string]any{
		"type": "join",
		"user": map[string]any{"id": "t-1", "name": "Tess", "role": "teacher"},
	})
	readUntil(t, impostor, TypeWelcome)

	joined := readUntil(t, teacher, TypePresenceJoin)
	if role := joined["participant"].(map[string]any)["user"].(map[string]any)["role"]; role != identity.RoleStudent {
		t.Fatalf("unverified join got role %v, want student", role)
	}

	impostor.WriteJSON(map[string]any{"type": "board:permission", "allowed": true})
	impostor.WriteJSON(map[string]any{"type": "chat:message", "text": "after"})
	_, skipped := readCollect(t, teacher, TypeChatMessage)
	for _, typ := range skipped {
		if typ == TypeBoardPermission {
			t.Fatal("unverified client changed the board permission")
		}
	}

	teacher.WriteJSON(map[string]any{"type": "board:permission", "allowed": true})
	perm := readUntil(t, impostor, TypeBoardPermission)
	if perm["authorId"] != teacherID {
		t.Fatalf("board:permission = %v", perm)
	}

	waitForRoom(t, hub, "r1", func(info RoomInfo, ok bool) bool { return ok && info.BoardPermission })
}
