package middleware

import (
	"errors"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/respond"
)

// Sessions loads the request's session into its context and commits the
// session cookie right before the response headers are written.
//
// A store outage answers 503 and a user-directory outage 500; neither is
// ever downgraded to an anonymous request.
func Sessions(engine *goSession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, err := engine.Load(r.Context(), r)
			if err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, goSession.ErrStoreUnavailable) {
					status = http.StatusServiceUnavailable
				}
				engine.Logger().Error("session load failed", "method", r.Method, "path", r.URL.Path, "error", err)
				respond.Error(w, status, "")
				return
			}

			if slot := slotFromContext(r.Context()); slot != nil {
				slot.st = st
			}

			hw := &hookWriter{ResponseWriter: w}
			hw.before = func() { engine.Commit(w, st) }

			next.ServeHTTP(hw, r.WithContext(goSession.WithState(r.Context(), st)))
			hw.fire()
		})
	}
}
