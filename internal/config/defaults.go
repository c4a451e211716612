package config

import (
	"time"

	"classroom-backend/internal/identity"
	"classroom-backend/internal/websocket"
)

// Default values for optional configuration fields.
const (
	DefaultListenAddr      = ":8080"
	DefaultWebsocketPath   = "/ws"
	DefaultAPIPrefix       = "/api/v1"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultSendBuffer      = 256
	DefaultMaxFrameBytes   = websocket.DefaultMaxPayload
	DefaultReadBuffer      = 4096
	DefaultIdentityMode    = identity.ModeTrusted
	DefaultVerifyTimeout   = 2 * time.Second
	DefaultQueueSize       = 32
	DefaultQueueWorkers    = 8
)

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.WebsocketPath == "" {
		c.Server.WebsocketPath = DefaultWebsocketPath
	}
	if c.Server.APIPrefix == "" {
		c.Server.APIPrefix = DefaultAPIPrefix
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Rooms.SendBuffer == 0 {
		c.Rooms.SendBuffer = DefaultSendBuffer
	}
	if c.Rooms.MaxFrameBytes == 0 {
		c.Rooms.MaxFrameBytes = DefaultMaxFrameBytes
	}
	if c.Rooms.ReadBuffer == 0 {
		c.Rooms.ReadBuffer = DefaultReadBuffer
	}

	if c.Identity.Mode == "" {
		c.Identity.Mode = DefaultIdentityMode
	}
	if c.Identity.SessionPrefix == "" {
		c.Identity.SessionPrefix = identity.DefaultSessionPrefix
	}
	if c.Identity.VerifyTimeout == 0 {
		c.Identity.VerifyTimeout = DefaultVerifyTimeout
	}

	if c.Queue.Size == 0 {
		c.Queue.Size = DefaultQueueSize
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = DefaultQueueWorkers
	}
}
