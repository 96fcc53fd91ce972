package helpers

import (
	"errors"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Hour, 2*time.Hour)
	pair, err := m.GeneratePair("u1", "a@x.com")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := m.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "u1" || claims.Email != "a@x.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatal("iat and exp must be set")
	}
	if !pair.RefreshExpiresAt.After(pair.AccessExpiresAt) {
		t.Fatal("refresh token should outlive the access token")
	}
}

func TestJWTRejectsUniformly(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Hour, time.Hour)
	expired := NewJWTManager("access", "refresh", -time.Minute, -time.Minute)

	access, _, _ := m.GenerateAccessToken("u1", "a@x.com")
	refresh, _, _ := m.GenerateRefreshToken("u1", "a@x.com")
	old, _, _ := expired.GenerateAccessToken("u1", "a@x.com")
	other, _, _ := NewJWTManager("other", "other", time.Hour, time.Hour).GenerateAccessToken("u1", "a@x.com")

	cases := map[string]string{
		"malformed":       "not.a.token",
		"empty":           "",
		"expired":         old,
		"wrong secret":    other,
		"refresh as auth": refresh,
	}
	for name, tok := range cases {
		if _, err := m.ParseAccessToken(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
	if _, err := m.ParseRefreshToken(access); !errors.Is(err, ErrInvalidToken) {
		t.Error("access token must not pass as a refresh token")
	}
}
