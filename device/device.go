// Package device classifies clients from their User-Agent header.
package device

import (
	"context"

	"github.com/mileusna/useragent"
)

// Class is the coarse device category of a client.
type Class uint8

const (
	Unknown Class = iota
	Desktop
	Mobile
	Tablet
)

func (c Class) String() string {
	switch c {
	case Desktop:
		return "desktop"
	case Mobile:
		return "mobile"
	case Tablet:
		return "tablet"
	default:
		return "unknown"
	}
}

// Handheld reports whether clients of this class use the X-Session-Id
// header instead of cookies.
func (c Class) Handheld() bool {
	return c == Mobile || c == Tablet
}

// Classify derives the class from a raw User-Agent value. An empty value is
// Unknown. Bots are classified as Desktop so they always use cookies.
func Classify(ua string) Class {
	if ua == "" {
		return Unknown
	}
	parsed := useragent.Parse(ua)
	switch {
	case parsed.Bot:
		return Desktop
	case parsed.Tablet:
		return Tablet
	case parsed.Mobile:
		return Mobile
	case parsed.Desktop:
		return Desktop
	default:
		return Unknown
	}
}

type contextKey struct{}

// WithClass stores c in ctx.
func WithClass(ctx context.Context, c Class) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the class stored by WithClass and whether one was set.
func FromContext(ctx context.Context) (Class, bool) {
	c, ok := ctx.Value(contextKey{}).(Class)
	return c, ok
}
