package model

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrTTLInvalid   = errors.New("ttl must be a positive number of seconds")
	ErrUnauthorized = errors.New("unauthorized")
)
