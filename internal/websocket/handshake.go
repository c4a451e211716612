package websocket

import (
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
)

const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// ErrMissingKey is returned when an upgrade request has no Sec-WebSocket-Key.
var ErrMissingKey = errors.New("websocket: missing Sec-WebSocket-Key header")

// AcceptKey computes the Sec-WebSocket-Accept value for a client key.
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + acceptGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// IsUpgradeRequest reports whether r asks to switch to the websocket protocol.
func IsUpgradeRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// RequestKey returns the client's handshake key.
func RequestKey(r *http.Request) (string, error) {
	key := strings.TrimSpace(r.Header.Get("Sec-WebSocket-Key"))
	if key == "" {
		return "", ErrMissingKey
	}
	return key, nil
}

// WriteHandshake writes the raw 101 response for key onto w. No subprotocol
// or extension is ever negotiated.
func WriteHandshake(w io.Writer, key string) error {
	var sb strings.Builder
	sb.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	sb.WriteString("Upgrade: websocket\r\n")
	sb.WriteString("Connection: Upgrade\r\n")
	sb.WriteString("Sec-WebSocket-Accept: " + AcceptKey(key) + "\r\n")
	sb.WriteString("\r\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
