package goSession

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/goSession/password"
)

// CredentialValidator checks a login identifier and password against the
// user directory.
type CredentialValidator struct {
	users    UserLookup
	verifier *password.Verifier
	logger   Logger
}

// NewCredentialValidator returns a validator over users.
func NewCredentialValidator(users UserLookup, verifier *password.Verifier, logger Logger) *CredentialValidator {
	if logger == nil {
		logger = NopLogger()
	}
	return &CredentialValidator{users: users, verifier: verifier, logger: logger}
}

type lookupResult struct {
	acct *Account
	err  error
}

// Validate resolves login as a username and as an email concurrently and
// verifies password against the first account found.
//
// Every rejection returns ErrInvalidCredentials. When no account was found
// and a lookup failed for a reason other than "not found", Validate returns
// ErrAccountLookupFailed so outages are not reported as bad passwords.
func (v *CredentialValidator) Validate(ctx context.Context, login, pw string) (*Principal, error) {
	login = strings.TrimSpace(login)
	if login == "" || pw == "" {
		v.verifier.Burn(pw)
		return nil, ErrInvalidCredentials
	}

	acct, err := v.lookup(ctx, login)
	if err != nil {
		return nil, err
	}
	if acct == nil || acct.Deleted() {
		v.verifier.Burn(pw)
		return nil, ErrInvalidCredentials
	}

	ok, err := v.verifier.Verify(pw, acct.PasswordHash)
	if err != nil {
		v.logger.Warn("stored password hash unusable", "account", acct.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return acct.Principal(), nil
}

// lookup races both finders. The first non-nil account wins and cancels the
// other; if a login matches one user's username and another user's email,
// whichever lookup answers first decides.
func (v *CredentialValidator) lookup(ctx context.Context, login string) (*Account, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan lookupResult, 2)
	go func() {
		acct, err := v.users.FindByUsername(ctx, login)
		results <- lookupResult{acct: acct, err: err}
	}()
	go func() {
		acct, err := v.users.FindByEmail(ctx, login)
		results <- lookupResult{acct: acct, err: err}
	}()

	var failure error
	for i := 0; i < 2; i++ {
		res := <-results
		switch {
		case res.err == nil && res.acct != nil:
			return res.acct, nil
		case res.err != nil && !errors.Is(res.err, ErrAccountNotFound):
			failure = res.err
		}
	}

	if failure != nil {
		v.logger.Error("account lookup failed", "error", failure)
		return nil, errors.Join(ErrAccountLookupFailed, failure)
	}
	return nil, nil
}
