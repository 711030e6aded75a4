package utils // package utils provides helper functions for token creation and signing

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

// InviteToken represents a signed invitation credential along with its
// expiry.  The Token field contains the serialized JWT handed to the
// recipient inside the emailed link.  Nothing about the token is stored
// server-side; validity is re-derived from the signature and claims on
// every redemption.
type InviteToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// InviteClaims is the verified content of an invitation token: which event
// it opens and which recipient it was minted for.
type InviteClaims struct {
	EventID uint64
	Email   string
}

// NewInviteToken builds and signs an HS256 JWT binding an event to a
// recipient email for a limited time.  The claims carry event_id, the
// lower-cased email, expiration (exp) and issued at (iat).
func NewInviteToken(secret string, eventID uint64, email string, ttl time.Duration) (InviteToken, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := jwt.MapClaims{
		"event_id": eventID,
		"email":    strings.ToLower(strings.TrimSpace(email)),
		"exp":      exp.Unix(),
		"iat":      time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return InviteToken{}, err
	}
	return InviteToken{Token: signed, Exp: exp}, nil
}

// ParseInviteToken verifies the signature and expiry of an invitation
// token and extracts its claims.  An expired token yields
// repository.ErrTokenExpired; any other verification failure, including a
// non-HMAC signing method or malformed claims, yields
// repository.ErrTokenInvalid.
func ParseInviteToken(secret, raw string) (InviteClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, repository.ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return InviteClaims{}, repository.ErrTokenExpired
		}
		return InviteClaims{}, repository.ErrTokenInvalid
	}
	if !tok.Valid {
		return InviteClaims{}, repository.ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return InviteClaims{}, repository.ErrTokenInvalid
	}
	eventID, ok := claims["event_id"].(float64)
	if !ok || eventID <= 0 {
		return InviteClaims{}, repository.ErrTokenInvalid
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return InviteClaims{}, repository.ErrTokenInvalid
	}
	return InviteClaims{EventID: uint64(eventID), Email: email}, nil
}
