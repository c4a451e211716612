// Package config loads the room server configuration from an optional YAML
// file, with ${VAR} interpolation and environment overrides.
package config

import "time"

// Config is the root configuration for a room server process.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Rooms    RoomsConfig    `yaml:"rooms"`
	Identity IdentityConfig `yaml:"identity"`
	Queue    QueueConfig    `yaml:"queue"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	WebsocketPath   string        `yaml:"ws_path"`
	APIPrefix       string        `yaml:"api_prefix"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RoomsConfig tunes per-connection buffering and room policy.
type RoomsConfig struct {
	SendBuffer             int  `yaml:"send_buffer"`      // outbound frames queued per session
	MaxFrameBytes          int  `yaml:"max_frame_bytes"`  // largest accepted inbound payload
	ReadBuffer             int  `yaml:"read_buffer"`      // socket read chunk size
	EnforceBoardPermission bool `yaml:"enforce_board_permission"`
}

// IdentityConfig selects how join identities are verified.
type IdentityConfig struct {
	Mode          string        `yaml:"mode"`
	JWTSecret     string        `yaml:"jwt_secret"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	SessionPrefix string        `yaml:"session_prefix"`
	VerifyTimeout time.Duration `yaml:"verify_timeout"`
}

// QueueConfig sizes the HTTP request worker pool.
type QueueConfig struct {
	Size    int `yaml:"size"`
	Workers int `yaml:"workers"`
}
