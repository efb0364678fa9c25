// Package httpapi exposes the session engine over HTTP: sign-in, sign-up,
// sign-out, the current-user endpoint, a health check and metrics.
//
// Every route runs inside middleware.Stack, so mobile and tablet clients get
// the session token mirrored in X-Session-Id. Error bodies always have the
// shape {"statusCode":N,"message":"..."}.
package httpapi
