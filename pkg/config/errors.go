package config

import "errors"

var (
	// ErrParsingConfig wraps failures reported by the env parser.
	ErrParsingConfig = errors.New("config: failed to parse environment")
	// ErrLoadingEnvFile wraps failures reading a .env file.
	ErrLoadingEnvFile = errors.New("config: failed to load env file")
	ErrNilPointer     = errors.New("config: nil pointer")
)
