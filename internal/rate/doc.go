// Package rate throttles repeated sign-in failures with fixed-window
// counters kept in the session store.
//
// Counters live under rl:signin:<sha256(lowercased login)>, so the store
// never holds a login in clear text. The window opens on the first failure
// (INCR + EXPIRE on the first hit).
package rate
