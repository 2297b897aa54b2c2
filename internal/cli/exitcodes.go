package cli

import (
	"errors"

	"github.com/electratype/electra/internal/config"
)

// ErrCompileFailed is returned after compile diagnostics were printed.
// It only signals the exit code.
var ErrCompileFailed = errors.New("compilation failed")

// Exit codes for electra.
const (
	// ExitSuccess indicates the document compiled.
	ExitSuccess = 0

	// ExitCompileErrors indicates the document has error diagnostics.
	ExitCompileErrors = 1

	// ExitConfigError indicates an invalid configuration.
	ExitConfigError = 65

	// ExitInternalError indicates any other failure.
	ExitInternalError = 70
)

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	var verr *config.ValidationError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrCompileFailed):
		return ExitCompileErrors
	case errors.As(err, &verr):
		return ExitConfigError
	default:
		return ExitInternalError
	}
}
