package config

import (
	"errors"
	"fmt"
	"strings"

	"classroom-backend/internal/identity"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Server.WebsocketPath, "/") {
		return errors.New("server.ws_path must start with /")
	}
	if !strings.HasPrefix(c.Server.APIPrefix, "/") {
		return errors.New("server.api_prefix must start with /")
	}
	if strings.HasPrefix(c.Server.WebsocketPath, strings.TrimRight(c.Server.APIPrefix, "/")+"/") {
		return errors.New("server.ws_path must not live under server.api_prefix")
	}

	if c.Rooms.SendBuffer < 1 {
		return errors.New("rooms.send_buffer must be >= 1")
	}
	if c.Rooms.MaxFrameBytes < 125 {
		return errors.New("rooms.max_frame_bytes must be >= 125")
	}
	if c.Rooms.ReadBuffer < 1 {
		return errors.New("rooms.read_buffer must be >= 1")
	}

	switch c.Identity.Mode {
	case identity.ModeTrusted:
	case identity.ModeJWT:
		if c.Identity.JWTSecret == "" {
			return errors.New("identity.jwt_secret is required in jwt mode")
		}
	case identity.ModeRedis:
		if c.Identity.RedisAddr == "" {
			return errors.New("identity.redis_addr is required in redis mode")
		}
	default:
		return fmt.Errorf("identity.mode %q is not one of trusted, jwt, redis", c.Identity.Mode)
	}
	if c.Identity.VerifyTimeout < 0 {
		return errors.New("identity.verify_timeout must not be negative")
	}

	if c.Queue.Size < 1 {
		return errors.New("queue.size must be >= 1")
	}
	if c.Queue.Workers < 1 {
		return errors.New("queue.workers must be >= 1")
	}

	return nil
}
