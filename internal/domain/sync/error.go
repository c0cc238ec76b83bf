package sync

import "errors"

var (
	ErrTooManyItems      = errors.New("too many items in one push")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidPagination = errors.New("invalid pagination")
)
