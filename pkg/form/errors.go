package form

import "errors"

var (
	ErrNilDocument = errors.New("form: nil document")
	ErrNilRoot     = errors.New("form: nil root")
	ErrNilRegistry = errors.New("form: nil rule registry")
	ErrDestroyed   = errors.New("form: used after destroy")
	ErrUnknownUnit = errors.New("form: unknown unit")
)
