package domain

import "errors"

var (
	ErrInvalidTaskParameters = errors.New("invalid task parameters")
	ErrTaskNotFound          = errors.New("task not found")
	ErrAlreadyActive         = errors.New("user already has an active task")
	ErrNoActiveTask          = errors.New("no active task")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrRequestNotFound       = errors.New("withdrawal request not found")
	ErrNotPending            = errors.New("withdrawal request already resolved")
	ErrInvalidReason         = errors.New("rejection reason required")
	ErrInvalidMethod         = errors.New("invalid withdrawal method")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrUserNotFound          = errors.New("user not found")
)
