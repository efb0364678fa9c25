package goSession

import (
	"context"
	"time"
)

// PrincipalVersion is bumped whenever Principal gains or loses a field.
const PrincipalVersion = 1

// Principal is the authenticated identity attached to one request.
// It never carries the password hash.
type Principal struct {
	ID          string    `json:"uuid"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Biography   string    `json:"biography,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Account is what a UserLookup returns: the public profile plus the
// credential material needed to verify a login.
type Account struct {
	ID           string
	Username     string
	Email        string
	DisplayName  string
	AvatarURL    string
	Biography    string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Deleted reports whether the account was soft-deleted.
func (a *Account) Deleted() bool {
	return a == nil || (a.DeletedAt != nil && !a.DeletedAt.IsZero())
}

// Principal projects the account to its public form. DisplayName falls back
// to Username.
func (a *Account) Principal() *Principal {
	if a == nil {
		return nil
	}
	display := a.DisplayName
	if display == "" {
		display = a.Username
	}
	return &Principal{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		DisplayName: display,
		AvatarURL:   a.AvatarURL,
		Biography:   a.Biography,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// NewAccount carries a sign-up request to an AccountCreator. PasswordHash is
// already hashed by the Engine.
type NewAccount struct {
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
}

// UserLookup resolves accounts. Every method returns ErrAccountNotFound when
// no live account matches; any other error is treated as an infrastructure
// failure.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
}

// AccountCreator persists new accounts. It returns ErrAccountExists when the
// username or email is taken.
type AccountCreator interface {
	CreateAccount(ctx context.Context, req NewAccount) (*Account, error)
}
