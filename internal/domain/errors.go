package domain

import "errors"

// Error taxonomy for the access-control and analytics core. Callers branch
// with errors.Is; handlers translate these to generic HTTP outcomes so a
// denied caller cannot tell which specific check failed.
var (
	// ErrInvalidCredential covers malformed, expired, revoked, or
	// wrongly-signed tokens and bad login passwords.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrPrincipalNotFound means the credential referenced a user that no
	// longer exists or has been deactivated.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrScopeDenied means the request targeted a hotel outside the
	// principal's scope.
	ErrScopeDenied = errors.New("hotel scope denied")

	// ErrCapabilityDenied means a correctly-scoped principal lacks the
	// capability for the requested action.
	ErrCapabilityDenied = errors.New("capability denied")

	// ErrNotFound is returned by repositories for missing rows.
	ErrNotFound = errors.New("not found")
)
