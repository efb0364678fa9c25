package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16

	argon2Prefix = "$argon2id$"
	argon2ID     = "argon2id"
)

var (
	// ErrPasswordTooShort is returned by Hash for passwords under MinPasswordBytes.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrMalformedHash is returned when a stored hash cannot be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
	// ErrUnsupportedHash is returned for hash schemes this package does not know.
	ErrUnsupportedHash = errors.New("unsupported password hash scheme")
)

// MinPasswordBytes is the shortest password Hash accepts.
const MinPasswordBytes = 8

// Argon2Params are the argon2id cost parameters used for new hashes.
type Argon2Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns the production cost parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate rejects parameters below the package floor.
func (p Argon2Params) Validate() error {
	switch {
	case p.Memory < minMemoryKB:
		return fmt.Errorf("argon2 memory must be >= %d KB", minMemoryKB)
	case p.Time < minTimeCost:
		return errors.New("argon2 time must be >= 1")
	case p.Parallelism < minParallelism:
		return errors.New("argon2 parallelism must be >= 1")
	case p.SaltLength < minSaltLength:
		return fmt.Errorf("argon2 salt length must be >= %d", minSaltLength)
	case p.KeyLength < minKeyLength:
		return fmt.Errorf("argon2 key length must be >= %d", minKeyLength)
	}
	return nil
}

type argon2Hasher struct {
	params Argon2Params
}

func (a argon2Hasher) hash(password string) (string, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, a.params.Time, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2ID,
		argon2.Version,
		a.params.Memory,
		a.params.Time,
		a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2(password, encoded string) (bool, error) {
	phc, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), phc.salt, phc.time, phc.memory, phc.parallelism, uint32(len(phc.key)))
	return subtle.ConstantTimeCompare(computed, phc.key) == 1, nil
}

type phcHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// parsePHC accepts padded and unpadded base64 segments; hashes written by
// other argon2 libraries commonly omit the padding.
func parsePHC(encoded string) (*phcHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != argon2ID {
		return nil, ErrMalformedHash
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: argon2 version %d", ErrUnsupportedHash, version)
	}

	out := &phcHash{}
	var seen int
	for _, pair := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, ErrMalformedHash
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || uint32(n) < minMemoryKB {
				return nil, ErrMalformedHash
			}
			out.memory = uint32(n)
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || uint32(n) < minTimeCost {
				return nil, ErrMalformedHash
			}
			out.time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || uint8(n) < minParallelism {
				return nil, ErrMalformedHash
			}
			out.parallelism = uint8(n)
		default:
			return nil, ErrMalformedHash
		}
		seen++
	}
	if seen != 3 {
		return nil, ErrMalformedHash
	}

	if out.salt, err = decodeSegment(parts[4]); err != nil || len(out.salt) < int(minSaltLength) {
		return nil, ErrMalformedHash
	}
	if out.key, err = decodeSegment(parts[5]); err != nil || len(out.key) == 0 {
		return nil, ErrMalformedHash
	}
	return out, nil
}

func decodeSegment(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
