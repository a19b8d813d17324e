package rule

import "errors"

var (
	// ErrInvalidRule is returned when a rule lacks a name, selector or validate function.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrDuplicateRule is returned when a rule name is registered twice.
	ErrDuplicateRule = errors.New("duplicate rule")
)
