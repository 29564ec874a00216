// Package identity derives the {userId, username} pair a session acts as.
package identity

import (
	"errors"
	"fmt"
	"strings"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoCredential = errors.New("identity: no credential")

const guestPrefix = "guest-"

type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Guest reports whether this is an anonymous fallback identity.
func (i Identity) Guest() bool {
	return strings.HasPrefix(i.UserID, guestPrefix)
}

func NewGuest() Identity {
	id := guestPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return Identity{UserID: id, Username: id}
}

// FromToken reads the identity claims of a credential without checking its
// signature. The relay is the party that verifies.
func FromToken(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoCredential
	}
	parser := gojwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		return Identity{}, fmt.Errorf("parse credential: %w", err)
	}
	return fromClaims(parsed.Claims.(gojwt.MapClaims))
}

// OrGuest is FromToken falling back to a fresh guest identity.
func OrGuest(token string) Identity {
	id, err := FromToken(token)
	if err != nil {
		return NewGuest()
	}
	return id
}

// Verifier checks HS256 credentials on the relay.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a verifier for secret. An empty secret accepts any
// credential unverified.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// Verify resolves a credential to an identity. A missing credential yields
// a guest.
func (v *Verifier) Verify(token string) (Identity, error) {
	if token == "" {
		return NewGuest(), nil
	}
	if !v.Enabled() {
		return FromToken(token)
	}
	claims := gojwt.MapClaims{}
	_, err := gojwt.ParseWithClaims(token, claims, func(t *gojwt.Token) (any, error) {
		return v.secret, nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("verify credential: %w", err)
	}
	return fromClaims(claims)
}

// Issue signs a credential for id. Used by tooling and tests.
func (v *Verifier) Issue(id Identity) (string, error) {
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"user_id":  id.UserID,
		"username": id.Username,
	})
	return token.SignedString(v.secret)
}

func fromClaims(claims gojwt.MapClaims) (Identity, error) {
	var id Identity
	if userID, ok := claims["user_id"].(string); ok {
		id.UserID = userID
	} else if sub, err := claims.GetSubject(); err == nil {
		id.UserID = sub
	}
	if username, ok := claims["username"].(string); ok {
		id.Username = username
	}
	if id.UserID == "" {
		return Identity{}, ErrNoCredential
	}
	if id.Username == "" {
		id.Username = id.UserID
	}
	return id, nil
}
