package identity

import (
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Options selects and configures a Verifier.
type Options struct {
	Mode          string
	JWTSecret     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionPrefix string
}

// New builds the Verifier for opts.Mode. Trusted mode has no verifier and
// returns nil: the join payload is taken at its word.
func New(opts Options) (Verifier, error) {
	switch opts.Mode {
	case "", ModeTrusted:
		return nil, nil
	case ModeJWT:
		if opts.JWTSecret == "" {
			return nil, fmt.Errorf("identity: jwt mode requires a secret")
		}
		return NewJWTVerifier(opts.JWTSecret), nil
	case ModeRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("identity: redis mode requires an address")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		return NewRedisVerifier(client, opts.SessionPrefix), nil
	default:
		return nil, fmt.Errorf("identity: unknown mode %q", opts.Mode)
	}
}
