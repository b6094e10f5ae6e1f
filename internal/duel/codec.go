package duel

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Codec turns challenges into signed opaque tokens. The payload is base64url
// JSON and the signature is HMAC-SHA256 over the encoded payload, so a token
// decodes only into exactly the fields that were signed at issue time.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Encode serializes and signs a challenge.
func (c *Codec) Encode(ch Challenge) (string, error) {
	raw, err := json.Marshal(ch)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + c.sign(payload), nil
}

// Decode verifies the signature and unpacks the challenge. Any structural or
// signature failure comes back as ErrInvalidToken so callers cannot probe
// which part was wrong.
func (c *Codec) Decode(token string) (Challenge, error) {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok {
		return Challenge{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(c.sign(payload)), []byte(sig)) {
		return Challenge{}, ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Challenge{}, ErrInvalidToken
	}
	var ch Challenge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return Challenge{}, ErrInvalidToken
	}
	if ch.Seed == "" || ch.GameType == "" || ch.ChallengerID == uuid.Nil {
		return Challenge{}, ErrInvalidToken
	}
	return ch, nil
}
