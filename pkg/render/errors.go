package render

import "errors"

var (
	ErrUnknownStyle = errors.New("render: unknown style")
	ErrInvalidStyle = errors.New("render: invalid style")
	ErrNilUnit      = errors.New("render: nil unit")
)
