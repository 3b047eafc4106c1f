// Package service holds the business core: identity lifecycle,
// sessions, the purchase guard and the expiry sweeper. Services talk
// to storage through small interfaces so the SQL repositories can be
// swapped for in-memory fakes in tests.
package service

import "errors"

// ErrInvalidCredentials is returned by login when the email is
// unknown or the password does not match. The two cases are
// deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrAccountNotActive is returned by login for PENDING or DISABLED
// accounts.
var ErrAccountNotActive = errors.New("account is not activated")

// ErrAccountAlreadyActive is returned by resend-activation when the
// account no longer needs activating.
var ErrAccountAlreadyActive = errors.New("account is already active")

// ErrAccountDisabled is returned by the activation paths for
// soft-deleted accounts. Only an admin decision reverses DISABLED;
// activation moves PENDING accounts and nothing else.
var ErrAccountDisabled = errors.New("account is disabled")

// ErrTokenInvalid is returned by refresh and logout for any unusable
// refresh token: unknown, expired, revoked or of the wrong kind.
// Collapsing the cases avoids confirming which tokens ever existed.
var ErrTokenInvalid = errors.New("invalid refresh token")

// ErrUnauthorized is returned by authorize when the access token
// fails signature or expiry checks.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned by authorize when the token verifies but
// the role is below the required minimum.
var ErrForbidden = errors.New("forbidden")

// ErrSamePassword is returned by change-password when the new
// password equals the current one.
var ErrSamePassword = errors.New("new password must differ from the current one")

// ErrAlreadyPurchased is the guard's user-visible refusal to re-add
// a purchased movie to a cart.
var ErrAlreadyPurchased = errors.New("movie already purchased")

// ErrDeleteBlocked is the guard's refusal to delete a movie that at
// least one account has purchased.
var ErrDeleteBlocked = errors.New("movie has purchases and cannot be deleted")
