package domain

import "errors"

// Login failures are user-facing and must stay distinct from one another.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCredentialTooShort = errors.New("password must be at least 3 characters")
	ErrInvalidCredential  = errors.New("invalid password, use 'password' or 'demo'")
)

var (
	// ErrNoSession is returned by a SessionStore when no record is persisted.
	ErrNoSession = errors.New("no stored session")

	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrNotManager       = errors.New("only managers can give feedback")
	ErrInvalidRecipient = errors.New("feedback recipient must be an employee")
	ErrNotRecipient     = errors.New("only the receiving employee can acknowledge feedback")
	ErrInvalidSentiment = errors.New("sentiment must be positive, neutral, or negative")
	ErrEmptyFeedback    = errors.New("strengths and improvements are required")
)
