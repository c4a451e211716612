package classroom

import (
	"log"
	"net/http"
	"net/url"
	"time"

	"classroom-backend/internal/identity"
	"classroom-backend/internal/websocket"
	"classroom-backend/utils"
)

// HandlerOptions configures accepted connections.
type HandlerOptions struct {
	Verifier      identity.Verifier
	VerifyTimeout time.Duration
	SendBuffer    int
	ReadBuffer    int
	MaxFrameBytes int
}

// Handler performs the websocket handshake itself and hands the raw socket
// to a Client.
type Handler struct {
	hub     *Hub
	auth    *authenticator
	options clientOptions
}

func NewHandler(hub *Hub, opts HandlerOptions) *Handler {
	return &Handler{
		hub:  hub,
		auth: &authenticator{verifier: opts.Verifier, timeout: opts.VerifyTimeout},
		options: clientOptions{
			sendBuffer:    opts.SendBuffer,
			readBuffer:    opts.ReadBuffer,
			maxFrameBytes: opts.MaxFrameBytes,
		},
	}
}

// RoomIDFromQuery extracts roomId from a raw query string, falling back to
// DefaultRoomID when it is absent or the query does not parse.
func RoomIDFromQuery(rawQuery string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return DefaultRoomID
	}
	if id := values.Get("roomId"); id != "" {
		return id
	}
	return DefaultRoomID
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsUpgradeRequest(r) {
		http.Error(w, "Upgrade Required", http.StatusUpgradeRequired)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "Websocket not supported", http.StatusInternalServerError)
		return
	}

	key, keyErr := websocket.RequestKey(r)

	conn, brw, err := hijacker.Hijack()
	if err != nil {
		log.Printf("[WEBSOCKET]: hijack failed: %v", err)
		return
	}

	// A request without a key gets no response at all.
	if keyErr != nil {
		conn.Close()
		return
	}

	// Deadlines set by the HTTP server must not outlive the handshake.
	if err := conn.SetDeadline(time.Time{}); err != nil {
		conn.Close()
		return
	}

	if err := websocket.WriteHandshake(conn, key); err != nil {
		log.Printf("[WEBSOCKET]: handshake write failed: %v", err)
		conn.Close()
		return
	}

	var pending []byte
	if n := brw.Reader.Buffered(); n > 0 {
		peeked, _ := brw.Reader.Peek(n)
		pending = append([]byte(nil), peeked...)
	}

	cl := newClient(utils.NewClientID(), RoomIDFromQuery(r.URL.RawQuery), conn, h.options)
	cl.RemoteAddr = utils.RealClientIP(r)

	if !h.hub.Register(cl) {
		conn.Close()
		return
	}

	go cl.writeMessage()
	go cl.readMessage(h.hub, h.auth, pending)
}
