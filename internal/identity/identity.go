// Package identity resolves the acting player for a request: either an
// authenticated user (JWT claims) or a client-generated anonymous guest id.
// Duels and persisted rankings require the former.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Errors returned while resolving an identity.
var (
	ErrNoIdentity   = errors.New("no identity in request")
	ErrInvalidToken = errors.New("invalid access token")
)

// GuestHeader carries the client-generated anonymous identifier.
const GuestHeader = "X-Guest-ID"

// Identity is the acting player for one operation.
type Identity struct {
	UserID      *uuid.UUID
	GuestID     string
	DisplayName string
}

// IsGuest reports whether this identity has no authenticated user behind it.
func (id Identity) IsGuest() bool { return id.UserID == nil }

// Key returns the stable ownership key used on sessions and guesses.
func (id Identity) Key() string {
	if id.UserID != nil {
		return "user:" + id.UserID.String()
	}
	return "guest:" + id.GuestID
}

// User builds an authenticated identity.
func User(userID uuid.UUID, name string) Identity {
	return Identity{UserID: &userID, DisplayName: name}
}

// Guest builds an anonymous identity.
func Guest(guestID string) Identity {
	return Identity{GuestID: guestID, DisplayName: "guest"}
}

type accessClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// FromRequest extracts the identity from a bearer token, falling back to the
// guest header. A malformed or forged token is an error; a missing one with
// no guest header is ErrNoIdentity.
func FromRequest(r *http.Request, secret []byte) (Identity, error) {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		raw := strings.TrimPrefix(authz, "Bearer ")
		claims := &accessClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			return Identity{}, ErrInvalidToken
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return Identity{}, ErrInvalidToken
		}
		return User(userID, claims.Name), nil
	}

	if guestID := r.Header.Get(GuestHeader); guestID != "" {
		return Guest(guestID), nil
	}

	return Identity{}, ErrNoIdentity
}

type ctxKey struct{}

// IntoContext stores the identity for downstream handlers.
func IntoContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity previously stored by IntoContext.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Middleware resolves the request identity and injects it into the context.
// Requests with no resolvable identity are rejected before reaching handlers.
func Middleware(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := FromRequest(r, secret)
		if err != nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(IntoContext(r.Context(), id)))
	})
}
