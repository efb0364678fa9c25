package goSession

import "context"

// RequireAuthenticated returns the request's principal or ErrUnauthorized.
// It performs no I/O: the principal was resolved when the session loaded.
func RequireAuthenticated(ctx context.Context) (*Principal, error) {
	p := PrincipalFromContext(ctx)
	if p == nil {
		return nil, ErrUnauthorized
	}
	return p, nil
}
