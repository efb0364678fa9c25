package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/respond"
)

// RequireAuthenticated rejects requests that carry no principal with 401.
// It must run inside Sessions. engine may be nil; it is only used to count
// rejections.
func RequireAuthenticated(engine *goSession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := goSession.RequireAuthenticated(r.Context()); err != nil {
				if engine != nil {
					engine.Metrics().Inc(goSession.MetricGuardRejected)
				}
				respond.Error(w, http.StatusUnauthorized, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
