package goSession

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/session"
	"github.com/MrEthical07/goSession/token"
)

var (
	// ErrInvalidCredentials is the single failure returned for every rejected
	// login: unknown user, wrong password, deleted account, empty password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStoreUnavailable reports that the session store could not be reached.
	ErrStoreUnavailable = session.ErrStoreUnavailable
	// ErrSignatureInvalid reports an unverifiable session token. Load recovers
	// from it by treating the request as having no session.
	ErrSignatureInvalid = token.ErrSignatureInvalid
	// ErrPrincipalVanished reports a session whose account no longer exists.
	ErrPrincipalVanished = errors.New("session principal no longer exists")
	// ErrUnauthorized is returned by the guard when no principal is present.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAccountLookupFailed reports an infrastructure failure in user lookup.
	ErrAccountLookupFailed = errors.New("account lookup failed")
	// ErrAccountNotFound is returned by UserLookup implementations when no
	// live account matches.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is returned by AccountCreator on a username or email conflict.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountInvalid is returned by AccountCreator for requests it refuses,
	// such as a reserved username.
	ErrAccountInvalid = errors.New("invalid account creation request")
	// ErrSignInThrottled is returned while a login has no sign-in attempts left.
	ErrSignInThrottled = errors.New("too many sign-in attempts")
	// ErrEngineNotReady reports a missing collaborator or a nil State.
	ErrEngineNotReady = errors.New("session engine not ready")
)

var (
	// ErrEmailTaken is the ErrAccountExists variant for a registered email.
	ErrEmailTaken = fmt.Errorf("%w: email is already in use", ErrAccountExists)
	// ErrUsernameTaken is the ErrAccountExists variant for a taken username.
	ErrUsernameTaken = fmt.Errorf("%w: username is already taken", ErrAccountExists)
	// ErrUsernameReserved is the ErrAccountInvalid variant for reserved usernames.
	ErrUsernameReserved = fmt.Errorf("%w: username is not allowed", ErrAccountInvalid)
)
