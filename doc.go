// Package goSession turns a successful credential check into a durable,
// revocable session that works the same whether the client carries it in a
// cookie or in the X-Session-Id header.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Per-request data lives in a
// [State] that belongs to exactly one request.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config],
// [State], and value types ([Principal], [Account]). Session persistence
// lives in the session package, cookie signing in token, password hashing in
// password. HTTP wiring lives in middleware and httpapi, which import this
// package and never the other way around.
//
// # What this package must NOT do
//
//   - Write headers or bodies itself, except through [Engine.Commit].
//   - Keep per-request data in the Engine.
//   - Store anything about the principal in the session record beyond its id.
//
// # Performance contract
//
// Load costs one store round trip plus one user lookup for authenticated
// sessions. SignIn costs two lookups, one password verification, one store
// write and one store delete.
package goSession
