// Package identity resolves a bearer token issued by the REST API into the
// user a classroom session acts as.
package identity

import (
	"context"
	"errors"
)

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Verification modes.
const (
	ModeTrusted = "trusted"
	ModeJWT     = "jwt"
	ModeRedis   = "redis"
)

var (
	ErrInvalidToken   = errors.New("identity: invalid token")
	ErrUnknownSession = errors.New("identity: unknown session")
)

// User is a verified identity.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Verifier turns a token into a User.
type Verifier interface {
	Verify(ctx context.Context, token string) (User, error)
}
