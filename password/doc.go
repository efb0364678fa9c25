// Package password hashes and verifies account passwords.
//
// Two stored formats are understood:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//	$2a$<cost>$<salt+hash>   (also $2b$ and $2y$)
//
// New hashes are produced in the scheme selected by [Options.Scheme]
// (argon2id unless configured otherwise). Accounts imported from systems
// that stored bcrypt hashes keep verifying without a migration step.
//
// [Verifier.Burn] runs one comparison against a throwaway hash so that a
// login for an unknown account spends roughly the same time as a login with
// a wrong password.
//
// This package never stores or logs plaintext passwords and imports no other
// package of this module.
package password
