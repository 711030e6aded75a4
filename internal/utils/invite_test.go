package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

func TestInviteTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := NewInviteToken("invite-secret", 9, "Guest@Example.COM", time.Hour)
	if err != nil {
		t.Fatalf("NewInviteToken: %v", err)
	}
	claims, err := ParseInviteToken("invite-secret", tok.Token)
	if err != nil {
		t.Fatalf("ParseInviteToken: %v", err)
	}
	if claims.EventID != 9 {
		t.Errorf("event id = %d, want 9", claims.EventID)
	}
	if claims.Email != "guest@example.com" {
		t.Errorf("email = %q, want lower-cased guest@example.com", claims.Email)
	}
}

func TestParseInviteTokenExpired(t *testing.T) {
	t.Parallel()

	tok, err := NewInviteToken("invite-secret", 9, "guest@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("NewInviteToken: %v", err)
	}
	if _, err := ParseInviteToken("invite-secret", tok.Token); !errors.Is(err, repository.ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestParseInviteTokenInvalid(t *testing.T) {
	t.Parallel()

	tok, err := NewInviteToken("invite-secret", 9, "guest@example.com", time.Hour)
	if err != nil {
		t.Fatalf("NewInviteToken: %v", err)
	}

	cases := []struct {
		name string
		raw  string
		key  string
	}{
		{"wrong secret", tok.Token, "other-secret"},
		{"garbage", "not.a.jwt", "invite-secret"},
		{"empty", "", "invite-secret"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseInviteToken(tc.key, tc.raw); !errors.Is(err, repository.ErrTokenInvalid) {
				t.Fatalf("err = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
