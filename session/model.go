package session

import "time"

// Record is the server-side state behind one session id.
//
// A record with an empty PrincipalRef is anonymous and confers no
// authorization. ID is the store key and is not part of the encoded blob.
type Record struct {
	ID           string
	PrincipalRef string

	CreatedAt int64
	ExpiresAt int64

	// Persistent is set when the session was established with remember-me.
	Persistent bool

	// Values is the session-scoped bag. The canonical empty bag is nil.
	Values map[string]string
}

// Anonymous reports whether the record carries no principal.
func (r *Record) Anonymous() bool {
	return r == nil || r.PrincipalRef == ""
}

// Expired reports whether the record's absolute expiry is at or before now.
func (r *Record) Expired(now time.Time) bool {
	return r == nil || r.ExpiresAt <= now.Unix()
}

// TTL returns the time left until ExpiresAt, never negative.
func (r *Record) TTL(now time.Time) time.Duration {
	if r == nil {
		return 0
	}
	ttl := time.Unix(r.ExpiresAt, 0).Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if len(r.Values) > 0 {
		out.Values = make(map[string]string, len(r.Values))
		for k, v := range r.Values {
			out.Values[k] = v
		}
	} else {
		out.Values = nil
	}
	return &out
}
