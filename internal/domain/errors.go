// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotAuthenticated indicates no resolvable principal. Callers must treat
// this as "redirect to login", never as a retryable condition.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrStoreUnavailable indicates a transient backend or network failure.
// Local edits are retained and a later save may succeed.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrSubscriptionClosed indicates a live update channel was torn down and
// will not deliver further snapshots. Re-subscribing is the caller's call.
var ErrSubscriptionClosed = errors.New("subscription closed")

// ErrValidation indicates invalid input on a domain entity.
var ErrValidation = errors.New("validation failed")

// ErrForbidden indicates the principal lacks permission for the operation.
var ErrForbidden = errors.New("forbidden")
