package goSession

import "context"

type stateContextKey struct{}

// WithState attaches the request's session State to ctx.
func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateContextKey{}, st)
}

// StateFromContext returns the State attached by WithState, or nil.
func StateFromContext(ctx context.Context) *State {
	if ctx == nil {
		return nil
	}
	st, _ := ctx.Value(stateContextKey{}).(*State)
	return st
}

// PrincipalFromContext returns the authenticated principal of the request
// carried by ctx, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	return StateFromContext(ctx).Principal()
}
