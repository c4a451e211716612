package classroom

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"classroom-backend/internal/identity"
	"classroom-backend/internal/websocket"
)

const (
	writeWait            = 10 * time.Second
	defaultSendBuffer    = 256
	defaultReadBuffer    = 4096
	defaultVerifyTimeout = 2 * time.Second
)

// Client is the server-side state of one websocket connection. RoomID is
// fixed for the life of the connection. User, Media and joinSeq belong to
// the Hub goroutine.
type Client struct {
	ID         string
	RoomID     string
	RemoteAddr string

	User    *identity.User
	Media   Media
	joinSeq uint64

	conn       net.Conn
	frames     *websocket.Reassembler
	readBuffer int

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

type clientOptions struct {
	sendBuffer    int
	readBuffer    int
	maxFrameBytes int
}

func newClient(id, roomID string, conn net.Conn, opts clientOptions) *Client {
	if opts.sendBuffer <= 0 {
		opts.sendBuffer = defaultSendBuffer
	}
	if opts.readBuffer <= 0 {
		opts.readBuffer = defaultReadBuffer
	}
	return &Client{
		ID:         id,
		RoomID:     roomID,
		conn:       conn,
		frames:     websocket.NewReassembler(opts.maxFrameBytes),
		readBuffer: opts.readBuffer,
		send:       make(chan []byte, opts.sendBuffer),
	}
}

// Send queues an encoded frame without blocking. A client whose queue is
// full is closed and Send reports false.
func (cl *Client) Send(frame []byte) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.closed {
		return false
	}
	select {
	case cl.send <- frame:
		return true
	default:
		log.Printf("[WEBSOCKET]: client %s send queue full, dropping connection", cl.ID)
		incDropped("slow_consumer")
		cl.closeLocked()
		return false
	}
}

// Close stops accepting frames. Frames already queued are still written
// before the socket is closed.
func (cl *Client) Close() {
	cl.mu.Lock()
	cl.closeLocked()
	cl.mu.Unlock()
}

func (cl *Client) closeLocked() {
	if cl.closed {
		return
	}
	cl.closed = true
	close(cl.send)
}

func (cl *Client) participant() Participant {
	p := Participant{ClientID: cl.ID, Media: cl.Media}
	if cl.User != nil {
		p.User = *cl.User
	}
	return p
}

func (cl *Client) isTeacher() bool {
	return cl.User != nil && cl.User.Role == identity.RoleTeacher
}

func (cl *Client) displayName() string {
	if cl.User == nil {
		return ""
	}
	return cl.User.Name
}

func (cl *Client) writeMessage() {
	defer cl.conn.Close()

	for frame := range cl.send {
		if err := cl.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if _, err := cl.conn.Write(frame); err != nil {
			log.Printf("[WEBSOCKET]: error writing to client %s: %v", cl.ID, err)
			return
		}
	}
}

// readMessage runs the reassembly loop until the peer closes, errors, or
// sends a close frame. pending holds bytes the HTTP server had already
// buffered past the handshake.
func (cl *Client) readMessage(hub *Hub, auth *authenticator, pending []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WEBSOCKET]: recovered from panic in readMessage for %s: %v", cl.ID, r)
		}

		hub.Unregister(cl)
		cl.Close()
		log.Printf("[WEBSOCKET]: client %s disconnected from room %s", cl.ID, cl.RoomID)
	}()

	if len(pending) > 0 {
		cl.frames.Feed(pending)
		if !cl.drain(hub, auth) {
			return
		}
	}

	chunk := make([]byte, cl.readBuffer)
	for {
		n, err := cl.conn.Read(chunk)
		if n > 0 {
			cl.frames.Feed(chunk[:n])
			if !cl.drain(hub, auth) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Printf("[WEBSOCKET]: error reading from client %s: %v", cl.ID, err)
			}
			return
		}
	}
}

// drain dispatches every complete buffered frame. It returns false when the
// connection should end.
func (cl *Client) drain(hub *Hub, auth *authenticator) bool {
	for {
		f, ok, err := cl.frames.Next()
		if err != nil {
			log.Printf("[WEBSOCKET]: client %s: %v", cl.ID, err)
			incDropped("frame_too_large")
			return false
		}
		if !ok {
			return true
		}

		incFrames(f.Opcode.String())

		switch f.Opcode {
		case websocket.OpcodeClose:
			return false
		case websocket.OpcodePing:
			cl.Send(websocket.Encode(f.Payload, websocket.OpcodePong))
		case websocket.OpcodeText:
			msg, err := DecodeMessage(f.Payload)
			if err != nil {
				continue
			}
			auth.check(msg)
			hub.Dispatch(cl, msg)
		}
	}
}

// authenticator verifies join tokens on the reader goroutine so the Hub
// never waits on the identity backend.
type authenticator struct {
	verifier identity.Verifier
	timeout  time.Duration
}

func (a *authenticator) check(msg Message) {
	if a == nil || a.verifier == nil {
		return
	}
	join, ok := msg.(*JoinMessage)
	if !ok {
		return
	}

	join.requireVerified = true
	if join.Token == "" {
		return
	}

	timeout := a.timeout
	if timeout <= 0 {
		timeout = defaultVerifyTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	u, err := a.verifier.Verify(ctx, join.Token)
	if err != nil {
		log.Printf("[IDENTITY]: join token rejected: %v", err)
		return
	}
	join.verified = &u
}
