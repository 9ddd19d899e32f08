package domain

import "errors"

var (
	// ErrDuplicateUsername is returned when registering a username that is already taken.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrAccountNotFound is returned when no account matches the given id or username.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUnknownUsername distinguishes a missing account from a bad credential on login.
	ErrUnknownUsername = errors.New("unknown username")
	// ErrBadCredential is returned when the account exists but the credential does not match.
	ErrBadCredential = errors.New("wrong credential")
	// ErrNoQuestions is returned when the category/level filter selects an empty pool.
	ErrNoQuestions = errors.New("no questions available")
	// ErrValidation rejects missing or malformed input before it reaches storage.
	ErrValidation = errors.New("invalid input")
)
