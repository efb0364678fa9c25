// Package token signs and unsigns the session id carried by the session
// cookie and the X-Session-Id header.
//
// The wire form is
//
//	s:<id>.<signature>
//
// where signature is the unpadded base64url HMAC-SHA256 of id under the
// primary secret. Any configured secret verifies, so secrets can be rotated
// by prepending the new one and dropping the old one after the longest
// session lifetime has passed.
package token
