// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios. For example, ErrTokenExpired means the row exists but
// its lifetime elapsed, while ErrTokenNotFound means no row matches
// at all. Anything not covered here is a plain infrastructure error
// (store unavailable) and is surfaced wrapped, outside this taxonomy.
package repository

import "errors"

// ErrNotFound is returned when an account, movie or cart item does
// not exist. Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering with an email that is
// already taken. Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenNotFound is returned when no token row matches the
// presented secret.
var ErrTokenNotFound = errors.New("token not found")

// ErrTokenExpired is returned when a token row exists but its
// expires_at has passed. Lookup re-checks this at point of use, so
// the error is accurate even before the sweeper removes the row.
var ErrTokenExpired = errors.New("token expired")

// ErrTokenConsumed is returned when a single-use token has already
// been spent.
var ErrTokenConsumed = errors.New("token already consumed")

// ErrTokenRevoked is returned when a token was invalidated, either
// explicitly (logout, forced re-login) or by issuing a successor of
// the same kind.
var ErrTokenRevoked = errors.New("token revoked")

// ErrAlreadyInCart is returned when adding a movie that is already
// in the account's cart.
var ErrAlreadyInCart = errors.New("movie already in cart")

// ErrAlreadyPurchased is returned by the purchase ledger when a
// (account, movie) purchase row already exists.
var ErrAlreadyPurchased = errors.New("movie already purchased")
