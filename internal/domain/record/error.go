package record

import (
	"errors"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrMalformedRecord   = errors.New("malformed record")
	ErrInvalidData       = errors.New("invalid record data")
)
