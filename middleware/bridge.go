package middleware

import (
	"context"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/device"
)

// SessionHeader carries the signed session token for clients that do not
// keep cookies. Both directions use the same name.
const SessionHeader = "X-Session-Id"

type stateSlotKey struct{}

// stateSlot lets PropagateOutbound, which wraps Sessions, see the State
// that Sessions loads further down the chain.
type stateSlot struct {
	st *goSession.State
}

func slotFromContext(ctx context.Context) *stateSlot {
	slot, _ := ctx.Value(stateSlotKey{}).(*stateSlot)
	return slot
}

func classOf(r *http.Request) device.Class {
	if c, ok := device.FromContext(r.Context()); ok {
		return c
	}
	return device.Classify(r.UserAgent())
}

// NormalizeInbound makes a mobile or tablet client's X-Session-Id header
// visible as the cookieName cookie. A cookie already present keeps
// precedence because the header value is appended after it. Requests
// without a User-Agent pass through untouched.
func NormalizeInbound(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ua := r.UserAgent()
			if ua == "" {
				next.ServeHTTP(w, r)
				return
			}

			class := device.Classify(ua)
			ctx := device.WithClass(r.Context(), class)

			value := r.Header.Get(SessionHeader)
			if value == "" || !class.Handheld() {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			r = r.Clone(ctx)
			r.Header.Add("Cookie", (&http.Cookie{Name: cookieName, Value: value}).String())
			next.ServeHTTP(w, r)
		})
	}
}

// PropagateOutbound sets X-Session-Id on responses to mobile and tablet
// clients to the session token committed for this request. It must wrap
// Sessions so that its hook fires after the session commit.
func PropagateOutbound() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !classOf(r).Handheld() {
				next.ServeHTTP(w, r)
				return
			}

			slot := &stateSlot{}
			hw := &hookWriter{ResponseWriter: w}
			hw.before = func() {
				if tok := slot.st.Token(); tok != "" {
					w.Header().Set(SessionHeader, tok)
				}
			}

			next.ServeHTTP(hw, r.WithContext(context.WithValue(r.Context(), stateSlotKey{}, slot)))
			hw.fire()
		})
	}
}
