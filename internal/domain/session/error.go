package session

import "errors"

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrDeviceNotFound = errors.New("device not found")
	ErrInvalidRequest = errors.New("invalid request")
)
