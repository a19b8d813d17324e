package cli

import "fmt"

// Process exit codes.
const (
	exitFailure    = 1
	exitValidation = 2
	exitNotFound   = 3
)

// ExitError carries the process exit code out of a cobra RunE.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}
