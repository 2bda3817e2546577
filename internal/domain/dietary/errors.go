package dietary

import "errors"

// Domain errors for the recommendation workflow

var (
	// Lookup results that are normal control flow, not failures
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrProfileNotFound = errors.New("user health profile not found")

	// Collaborator output problems
	ErrMalformedResponse = errors.New("malformed text generation response")

	// Input problems
	ErrMissingUserID   = errors.New("user id is required")
	ErrMissingQuestion = errors.New("question is required")
)
