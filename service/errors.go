package service

import "errors"

// Claim failure taxonomy. Callers distinguish these with errors.Is; anything
// else coming out of the engine is a store error and may be retried with
// backoff after re-checking claim state.
var (
	// ErrNotFound indicates the envelope does not exist
	ErrNotFound = errors.New("envelope not found")

	// ErrInvalid indicates the envelope is closed or expired
	ErrInvalid = errors.New("envelope is no longer valid")

	// ErrAlreadyClaimed indicates this claimant already holds a claim
	// record for the envelope
	ErrAlreadyClaimed = errors.New("envelope already claimed by this claimant")

	// ErrEmpty indicates an item envelope with no drawable slot left
	ErrEmpty = errors.New("no items left to draw")

	// ErrLedgerUnavailable indicates the ledger adapter rejected or failed
	// the balance operation
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrInsufficientBalance indicates the sender cannot cover the
	// envelope total
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDuplicateClaim is returned by the claim record store when the
	// (envelope, claimant) uniqueness constraint rejects an insert. The
	// engine surfaces it as ErrAlreadyClaimed.
	ErrDuplicateClaim = errors.New("duplicate claim record")

	// ErrSnapshotLocked indicates the owner's item snapshot is associated
	// with an open envelope and cannot be edited
	ErrSnapshotLocked = errors.New("item snapshot is locked by an open envelope")
)
