package dom

import "errors"

var (
	// ErrInvalidSelector is returned when a CSS selector cannot be compiled.
	ErrInvalidSelector = errors.New("invalid selector")

	// ErrNilNode is returned when an operation receives a nil node.
	ErrNilNode = errors.New("nil node")

	// ErrParse is returned when markup cannot be parsed.
	ErrParse = errors.New("failed to parse markup")
)
