package identity

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var testSecret = []byte("unit-test-secret")

func signedToken(t *testing.T, userID uuid.UUID, name string, secret []byte) string {
	t.Helper()
	claims := accessClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	assert.NoError(t, err)
	return raw
}

func TestFromRequestBearer(t *testing.T) {
	userID := uuid.New()
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+signedToken(t, userID, "alice", testSecret))

	id, err := FromRequest(r, testSecret)
	assert.NoError(t, err)
	assert.False(t, id.IsGuest())
	assert.Equal(t, userID, *id.UserID)
	assert.Equal(t, "alice", id.DisplayName)
	assert.Equal(t, "user:"+userID.String(), id.Key())
}

func TestFromRequestForgedToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+signedToken(t, uuid.New(), "mallory", []byte("wrong-secret")))

	_, err := FromRequest(r, testSecret)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestFromRequestGarbageSubject(t *testing.T) {
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	assert.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+raw)

	_, err = FromRequest(r, testSecret)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestFromRequestGuestHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(GuestHeader, "device-abc123")

	id, err := FromRequest(r, testSecret)
	assert.NoError(t, err)
	assert.True(t, id.IsGuest())
	assert.Equal(t, "guest:device-abc123", id.Key())
}

func TestFromRequestBearerWinsOverGuest(t *testing.T) {
	userID := uuid.New()
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+signedToken(t, userID, "bob", testSecret))
	r.Header.Set(GuestHeader, "device-abc123")

	id, err := FromRequest(r, testSecret)
	assert.NoError(t, err)
	assert.False(t, id.IsGuest())
}

func TestFromRequestNoIdentity(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, err := FromRequest(r, testSecret)
	assert.True(t, errors.Is(err, ErrNoIdentity))
}

func TestContextRoundTrip(t *testing.T) {
	id := Guest("g1")
	ctx := IntoContext(httptest.NewRequest("GET", "/", nil).Context(), id)

	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
