package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a malformed or unparseable field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidAmount indicates a negative purchase amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidRedemption indicates a redemption exceeding the accrued reward.
	ErrInvalidRedemption = errors.New("invalid redemption")
)
