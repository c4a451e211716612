package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const defaultTokenTTL = 15 * time.Minute

// JWTVerifier validates HS256 access tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// CreateToken signs an access token for u. A zero validUntil means 15 minutes
// from now.
func CreateToken(secret string, u User, validUntil int64) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("create token: empty secret")
	}

	if validUntil == 0 {
		validUntil = time.Now().Add(defaultTokenTTL).Unix()
	}

	claims := jwt.MapClaims{
		"id":   u.ID,
		"name": u.Name,
		"role": u.Role,
		"exp":  validUntil,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (User, error) {
	claims, err := v.ParseToken(tokenString)
	if err != nil {
		return User{}, err
	}

	id, _ := claims["id"].(string)
	if id == "" {
		return User{}, fmt.Errorf("%w: missing id claim", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)

	return User{ID: id, Name: name, Role: role}, nil
}

// ParseToken checks the signature and expiry of tokenString. Tokens without
// an exp claim are rejected.
func (v *JWTVerifier) ParseToken(tokenString string) (jwt.MapClaims, error) {
	if len(tokenString) == 0 {
		return nil, fmt.Errorf("%w: token string is empty", ErrInvalidToken)
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: claims of unexpected type", ErrInvalidToken)
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}
	if time.Now().Unix() > int64(exp) {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
	}

	return claims, nil
}
