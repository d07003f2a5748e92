// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client/service layers.
var (
	// ErrNotFound indicates the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a request the server rejected as unauthenticated.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionExpired indicates token refresh failed and stored credentials were
	// wiped; the user must authenticate again.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoRefreshToken indicates a refresh was attempted without a stored refresh token.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrNotAuthenticated indicates an operation that requires a logged-in session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrEmptyCart indicates checkout was attempted on a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNotCancellable indicates a cancel request on an order no longer pending.
	ErrNotCancellable = errors.New("order is not cancellable")

	// ErrRequestInFlight indicates a duplicate mutation was suppressed because an
	// identical one is still in flight.
	ErrRequestInFlight = errors.New("request already in flight")
)
