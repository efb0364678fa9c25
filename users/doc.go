// Package users is the reference account directory: a bun model of the
// users table plus a Directory that serves sign-in lookups, principal
// resolution and sign-up.
//
// Soft-deleted rows are invisible to every lookup but keep their username
// and email reserved.
package users
