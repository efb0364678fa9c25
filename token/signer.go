package token

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Prefix marks a signed value.
const Prefix = "s:"

const minSecretBytes = 16

var (
	// ErrSignatureInvalid is returned by Unsign for any value that does not
	// verify under one of the configured secrets.
	ErrSignatureInvalid = errors.New("session token signature invalid")
	// ErrNoSecrets is returned by NewSigner when no secret is configured.
	ErrNoSecrets = errors.New("session token: at least one secret is required")
	// ErrWeakSecret is returned by NewSigner for secrets shorter than 16 bytes.
	ErrWeakSecret = errors.New("session token: secret must be at least 16 bytes")
)

// Signer signs session ids. It is immutable and safe for concurrent use.
type Signer struct {
	secrets [][]byte
}

// NewSigner returns a Signer. The first secret signs; all of them verify.
func NewSigner(secrets ...string) (*Signer, error) {
	if len(secrets) == 0 {
		return nil, ErrNoSecrets
	}
	s := &Signer{secrets: make([][]byte, 0, len(secrets))}
	for _, secret := range secrets {
		if len(secret) < minSecretBytes {
			return nil, ErrWeakSecret
		}
		s.secrets = append(s.secrets, []byte(secret))
	}
	return s, nil
}

// Sign returns the wire form of id under the primary secret.
func (s *Signer) Sign(id string) (string, error) {
	sig, err := jwt.SigningMethodHS256.Sign(id, s.secrets[0])
	if err != nil {
		return "", err
	}
	return Prefix + id + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Unsign verifies value and returns the session id it carries. Values that
// arrive percent-encoded (as cookies set by some clients do) are decoded
// first. The returned rotated flag is true when the value verified under a
// secret other than the primary one, so the caller can re-issue it.
func (s *Signer) Unsign(value string) (id string, rotated bool, err error) {
	if strings.Contains(value, "%") {
		if decoded, derr := url.QueryUnescape(value); derr == nil {
			value = decoded
		}
	}
	if !strings.HasPrefix(value, Prefix) {
		return "", false, ErrSignatureInvalid
	}
	body := strings.TrimPrefix(value, Prefix)

	dot := strings.LastIndexByte(body, '.')
	if dot <= 0 || dot == len(body)-1 {
		return "", false, ErrSignatureInvalid
	}
	id, encoded := body[:dot], body[dot+1:]

	sig, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false, ErrSignatureInvalid
	}

	for i, secret := range s.secrets {
		if jwt.SigningMethodHS256.Verify(id, sig, secret) == nil {
			return id, i > 0, nil
		}
	}
	return "", false, ErrSignatureInvalid
}
