// Package session provides Redis-backed persistence for session records and
// the compact binary encoding they are stored in.
//
// # Binary encoding
//
// Records are stored as a versioned binary blob (v1–v2). The format is
// append-only: a new version adds trailing fields and never reinterprets old
// ones, so older blobs decode with defaults and newer blobs decode their
// known prefix.
//
// # Store client
//
// [Client] owns the single process-wide connection to the store. It connects
// lazily, reconnects when asked to use a different URL, and is safe for
// concurrent use. Reconnection is mutually exclusive with in-flight
// operations.
//
// # What this package must NOT do
//
//   - Import goSession, token, or middleware (no upward imports).
//   - Decide whether a missing record means "anonymous" or an error; that is
//     the Engine's call.
//   - Retry failed store operations internally.
package session
