package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// sessionIDSize is the number of random bytes behind a session id (192 bits).
const sessionIDSize = 24

// sessionIDLength is the length of the base64url text form of a session id.
var sessionIDLength = base64.RawURLEncoding.EncodedLen(sessionIDSize)

// ErrInvalidSessionID is returned by ParseSessionID for ids this package could not have minted.
var ErrInvalidSessionID = errors.New("invalid session id")

// NewSessionID returns a fresh, unguessable session id in base64url form.
func NewSessionID() (string, error) {
	var raw [sessionIDSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("session id entropy: %w", err)
	}
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// ParseSessionID checks that id has the shape produced by NewSessionID.
// It lets callers drop obviously forged ids before a store round trip.
func ParseSessionID(id string) (string, error) {
	if len(id) != sessionIDLength {
		return "", ErrInvalidSessionID
	}

	raw, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil || len(raw) != sessionIDSize {
		return "", ErrInvalidSessionID
	}

	return id, nil
}
