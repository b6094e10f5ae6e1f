package duel

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func sampleChallenge() Challenge {
	return Challenge{
		Seed:           "abcd1234",
		GameType:       "country:us",
		Rounds:         5,
		ChallengerID:   uuid.New(),
		ChallengerName: "alice",
		Score:          1234,
		ElapsedSec:     42.5,
		SessionID:      uuid.New(),
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec("secret-key")
	ch := sampleChallenge()

	token, err := codec.Encode(ch)
	assert.NoError(t, err)

	got, err := codec.Decode(token)
	assert.NoError(t, err)
	assert.Equal(t, ch, got)
}

func TestCodecRejectsTamperedPayload(t *testing.T) {
	codec := NewCodec("secret-key")
	token, _ := codec.Encode(sampleChallenge())

	payload, sig, _ := strings.Cut(token, ".")
	// Flip one character of the payload, keep the old signature.
	mutated := "A" + payload[1:]
	if mutated == payload {
		mutated = "B" + payload[1:]
	}
	_, err := codec.Decode(mutated + "." + sig)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestCodecRejectsForeignSignature(t *testing.T) {
	honest := NewCodec("secret-key")
	forger := NewCodec("other-key")

	token, _ := forger.Encode(sampleChallenge())
	_, err := honest.Decode(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestCodecRejectsGarbage(t *testing.T) {
	codec := NewCodec("secret-key")
	for _, token := range []string{"", "no-dot", "a.b", "!!!.???"} {
		_, err := codec.Decode(token)
		assert.True(t, errors.Is(err, ErrInvalidToken), "token %q", token)
	}
}

func TestCodecRejectsEmptyFields(t *testing.T) {
	codec := NewCodec("secret-key")
	ch := sampleChallenge()
	ch.Seed = ""
	token, _ := codec.Encode(ch)

	_, err := codec.Decode(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
