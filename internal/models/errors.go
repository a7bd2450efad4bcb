package models

import "errors"

// User errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidUsername = errors.New("username must be 1-50 characters")
	ErrLoginFailed     = errors.New("username taken or login failed")
)

// Task errors
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidTitle    = errors.New("title cannot be empty")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
	ErrUnknownStatus   = errors.New("unknown status")
)
