// Package ledger implements the offer and order lifecycles: who may move
// a record between which states, and under which preconditions. Storage is
// injected through the repository interfaces in repos.go, so the rules can
// be tested against an in-memory fake and backed by SQLite in production.
package ledger

import "errors"

// Sentinel errors for rejected operations. Callers match with errors.Is;
// a rejected operation never modifies stored state.
var (
	// ErrValidation marks malformed input, like a non-positive price.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an unknown offer, order or listing id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks a status change not permitted from the
	// record's current state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrPrecondition marks a business-rule violation, like creating an
	// order from an offer that was never accepted.
	ErrPrecondition = errors.New("precondition failed")
)
