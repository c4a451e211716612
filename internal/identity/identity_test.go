package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

const testSecret = "test-secret"

func TestJWTVerifierRoundTrip(t *testing.T) {
	want := User{ID: "u-1", Name: "Ada", Role: RoleTeacher}

	token, err := CreateToken(testSecret, want, 0)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	got, err := NewJWTVerifier(testSecret).Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != want {
		t.Fatalf("Verify = %+v, want %+v", got, want)
	}
}

func TestJWTVerifierRejects(t *testing.T) {
	valid, _ := CreateToken(testSecret, User{ID: "u-1", Role: RoleTeacher}, 0)
	expired, _ := CreateToken(testSecret, User{ID: "u-1"}, time.Now().Add(-time.Minute).Unix())
	otherKey, _ := CreateToken("other-secret", User{ID: "u-1"}, 0)
	noID, _ := CreateToken(testSecret, User{Name: "anon"}, 0)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"expired", expired},
		{"wrong secret", otherKey},
		{"missing id", noID},
		{"tampered", valid + "x"},
	}

	v := NewJWTVerifier(testSecret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(context.Background(), tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestRedisVerifier(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	v := NewRedisVerifier(client, "")
	ctx := context.Background()
	want := User{ID: "u-7", Name: "Grace", Role: RoleStudent}

	if err := v.StoreSession(ctx, "tok-7", want, time.Minute); err != nil {
		t.Fatalf("StoreSession: %v", err)
	}
	if !mr.Exists(DefaultSessionPrefix + "tok-7") {
		t.Fatal("session key not written with default prefix")
	}

	got, err := v.Verify(ctx, "tok-7")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != want {
		t.Fatalf("Verify = %+v, want %+v", got, want)
	}

	if _, err := v.Verify(ctx, "missing"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("missing session err = %v, want ErrUnknownSession", err)
	}

	mr.Set(DefaultSessionPrefix+"broken", "{not json")
	if _, err := v.Verify(ctx, "broken"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("broken session err = %v, want ErrInvalidToken", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := v.Verify(ctx, "tok-7"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expired session err = %v, want ErrUnknownSession", err)
	}
}

func TestNew(t *testing.T) {
	v, err := New(Options{Mode: ModeTrusted})
	if err != nil || v != nil {
		t.Fatalf("trusted: v=%v err=%v", v, err)
	}

	if _, err := New(Options{Mode: ModeJWT}); err == nil {
		t.Fatal("jwt without secret should fail")
	}
	v, err = New(Options{Mode: ModeJWT, JWTSecret: testSecret})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}
	if _, ok := v.(*JWTVerifier); !ok {
		t.Fatalf("jwt verifier type = %T", v)
	}

	if _, err := New(Options{Mode: ModeRedis}); err == nil {
		t.Fatal("redis without address should fail")
	}
	if _, err := New(Options{Mode: "ldap"}); err == nil {
		t.Fatal("unknown mode should fail")
	}
}
