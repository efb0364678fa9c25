package goSession

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PrincipalSerializer maps a principal to the reference kept in the session
// record and back.
type PrincipalSerializer struct {
	users UserLookup
}

// NewPrincipalSerializer returns a serializer resolving references through users.
func NewPrincipalSerializer(users UserLookup) *PrincipalSerializer {
	return &PrincipalSerializer{users: users}
}

// Serialize returns the principal's account id. It performs no I/O.
func (s *PrincipalSerializer) Serialize(p *Principal) string {
	if p == nil {
		return ""
	}
	return p.ID
}

// Deserialize resolves ref to the current principal. A malformed reference,
// an unknown id and a soft-deleted account all yield ErrPrincipalVanished;
// other lookup failures wrap ErrAccountLookupFailed.
func (s *PrincipalSerializer) Deserialize(ctx context.Context, ref string) (*Principal, error) {
	if _, err := uuid.Parse(ref); err != nil {
		return nil, ErrPrincipalVanished
	}

	acct, err := s.users.FindByID(ctx, ref)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return nil, ErrPrincipalVanished
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrAccountLookupFailed, err)
	case acct == nil || acct.Deleted():
		return nil, ErrPrincipalVanished
	}
	return acct.Principal(), nil
}
