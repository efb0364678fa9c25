// Package internal holds helpers shared by goSession packages that are not
// part of the public API.
//
// # What this package must NOT do
//
//   - Import goSession or any of its public sub-packages.
//   - Perform I/O beyond reading from crypto/rand.
package internal
