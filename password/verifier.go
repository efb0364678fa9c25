package password

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Scheme names a hash format used for new hashes.
type Scheme string

const (
	SchemeArgon2id Scheme = "argon2id"
	SchemeBcrypt   Scheme = "bcrypt"
)

// Options configures a Verifier.
type Options struct {
	Scheme     Scheme
	Argon2     Argon2Params
	BcryptCost int
}

// DefaultOptions hashes with argon2id at production cost.
func DefaultOptions() Options {
	return Options{
		Scheme:     SchemeArgon2id,
		Argon2:     DefaultArgon2Params(),
		BcryptCost: bcrypt.DefaultCost,
	}
}

// Validate checks the options for the selected scheme.
func (o Options) Validate() error {
	switch o.Scheme {
	case SchemeArgon2id:
		return o.Argon2.Validate()
	case SchemeBcrypt:
		if o.BcryptCost < bcrypt.MinCost || o.BcryptCost > bcrypt.MaxCost {
			return fmt.Errorf("bcrypt cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedHash, o.Scheme)
	}
}

// Verifier hashes new passwords and checks candidates against stored hashes
// of any supported scheme. It is safe for concurrent use.
type Verifier struct {
	opts Options

	dummyOnce sync.Once
	dummy     string
}

// NewVerifier validates opts and returns a Verifier.
func NewVerifier(opts Options) (*Verifier, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{opts: opts}, nil
}

// Hash returns an encoded hash of password in the configured scheme.
// Password bytes are used exactly as given, with no Unicode normalization.
func (v *Verifier) Hash(password string) (string, error) {
	if len(password) < MinPasswordBytes {
		return "", ErrPasswordTooShort
	}
	switch v.opts.Scheme {
	case SchemeBcrypt:
		return bcryptHasher{cost: v.opts.BcryptCost}.hash(password)
	default:
		return argon2Hasher{params: v.opts.Argon2}.hash(password)
	}
}

// Verify reports whether password matches encoded. The comparison is constant
// time in both schemes. A mismatch is (false, nil); an error means the stored
// hash itself is unusable.
func (v *Verifier) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argon2Prefix):
		return verifyArgon2(password, encoded)
	case isBcrypt(encoded):
		return verifyBcrypt(password, encoded)
	default:
		return false, ErrUnsupportedHash
	}
}

// NeedsRehash reports whether encoded was produced by another scheme or with
// weaker parameters than the current options.
func (v *Verifier) NeedsRehash(encoded string) bool {
	switch v.opts.Scheme {
	case SchemeBcrypt:
		if !isBcrypt(encoded) {
			return true
		}
		cost, err := bcrypt.Cost([]byte(encoded))
		return err != nil || cost < v.opts.BcryptCost
	default:
		phc, err := parsePHC(encoded)
		if err != nil {
			return true
		}
		p := v.opts.Argon2
		return phc.memory < p.Memory || phc.time < p.Time ||
			phc.parallelism < p.Parallelism || uint32(len(phc.key)) != p.KeyLength
	}
}

// Burn performs one throwaway verification. The result is discarded.
func (v *Verifier) Burn(password string) {
	v.dummyOnce.Do(func() {
		h, err := v.Hash("burn-placeholder-password")
		if err == nil {
			v.dummy = h
		}
	})
	if v.dummy == "" {
		return
	}
	_, _ = v.Verify(password, v.dummy)
}
