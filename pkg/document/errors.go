package document

import "errors"

var (
	// ErrClosed is returned when a handle is used after Close
	ErrClosed = errors.New("document is closed")

	// ErrInvalidPage is returned when a page index is out of range
	ErrInvalidPage = errors.New("invalid page index")
)
