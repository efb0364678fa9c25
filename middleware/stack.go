package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// Stack wraps next in the full session pipeline.
func Stack(engine *goSession.Engine) func(http.Handler) http.Handler {
	normalize := NormalizeInbound(engine.CookieName())
	propagate := PropagateOutbound()
	sessions := Sessions(engine)

	return func(next http.Handler) http.Handler {
		return normalize(propagate(sessions(next)))
	}
}
