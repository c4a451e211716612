package env

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

const (
	ConfigPath       = "ROOM_CONFIG"
	ListenAddr       = "ROOM_LISTEN_ADDR"
	WebsocketPath    = "ROOM_WS_PATH"
	IdentityMode     = "ROOM_IDENTITY_MODE"
	IdentityJWTKey   = "ROOM_JWT_SECRET"
	IdentityRedisURL = "ROOM_REDIS_ADDR"
	IdentityRedisPwd = "ROOM_REDIS_PASS"
)

// Load reads a .env file into the process environment when one exists.
// Variables already set win over the file.
func Load(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Printf("[ENV]: no .env file loaded (%v), using process environment", err)
	}
}

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}
