package domain

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExists      = errors.New("session already exists")
	ErrSessionBusy        = errors.New("a request is already pending for this session")
	ErrEmptyMessage       = errors.New("message text is empty")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

var ErrProfileExists = errors.New("a profile with this email already exists")
