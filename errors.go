package formguard

import "errors"

var (
	ErrNilDocument   = errors.New("formguard: nil document")
	ErrClosed        = errors.New("formguard: page closed")
	ErrNoPage        = errors.New("formguard: page not found")
	ErrBadSubmission = errors.New("formguard: malformed submission")
)
