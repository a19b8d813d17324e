package component

import "errors"

var (
	ErrNilFactory      = errors.New("component: nil factory")
	ErrEmptyMarker     = errors.New("component: empty marker attribute")
	ErrDuplicateMarker = errors.New("component: marker already registered")
	ErrNilComponent    = errors.New("component: factory returned nil")
)
