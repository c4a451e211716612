package utils

import "github.com/google/uuid"

// NewClientID mints the token identifying one websocket session.
func NewClientID() string {
	return uuid.NewString()
}

// NewMessageID mints a server-side id for a relayed chat message.
func NewMessageID() string {
	return uuid.NewString()
}

// NewRequestID mints an X-Request-ID for requests that arrive without one.
func NewRequestID() string {
	return uuid.NewString()
}
