// Package middleware adapts goSession.Engine to net/http.
//
// # Pipeline
//
// [Stack] composes the session middleware in the only order that works:
//
//	NormalizeInbound -> PropagateOutbound -> Sessions -> handler
//
//   - [NormalizeInbound] turns an X-Session-Id request header from a mobile
//     or tablet client into the session cookie, so everything downstream
//     reads one place.
//   - [Sessions] loads the session before the handler and commits the
//     Set-Cookie header right before the response headers go out.
//   - [PropagateOutbound] copies the committed session token into the
//     X-Session-Id response header for mobile and tablet clients. It runs
//     after the commit, so a token minted during the request is the one
//     that goes out.
//
// [RequireAuthenticated] rejects requests without a principal.
//
// # What this package must NOT do
//
//   - Read or write the session store (Engine handles I/O).
//   - Decide whether credentials are valid.
package middleware
