// internal/domain/errors.go
package domain

import "errors"

var (
	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// Authentication errors
	ErrUnauthenticated = errors.New("missing or invalid identity token")

	// Profile-related errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrMissingEmail    = errors.New("identity token does not carry an email address")
	ErrEmailMismatch   = errors.New("identity email does not match profile email")

	// Organization-related errors
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrDuplicateAPIKey      = errors.New("api key already in use")
	ErrInvalidAPIKey        = errors.New("unknown api key")

	// Membership-related errors
	ErrInsufficientRole = errors.New("insufficient role")
	ErrMemberNotFound   = errors.New("member not found")
	ErrCannotRemoveSelf = errors.New("cannot remove yourself")
	ErrLastAdmin        = errors.New("organization must keep at least one admin")
	ErrInvalidRole      = errors.New("invalid role")
)
