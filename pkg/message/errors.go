package message

import "errors"

var (
	ErrReadCatalog  = errors.New("message: failed to read catalog")
	ErrParseCatalog = errors.New("message: failed to parse catalog")
)
