package cli

import (
	"errors"

	"ecommerce-loader/internal/config"
	"ecommerce-loader/internal/loader"
)

// Exit codes for semantic error classification.
const (
	ExitSuccess         = 0  // Load completed
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // Invalid arguments or flags
	ExitPanic           = 3  // Internal panic
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Provisioning or connection failed
	ExitSchemaError     = 12 // Dropping or creating tables failed
	ExitImportAborted   = 13 // Import failed and was rolled back
)

// ErrUsage marks command line misuse.
var ErrUsage = errors.New("usage error")

// ExitCodeForError maps an error returned by Execute to a process exit code.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, loader.ErrProvision), errors.Is(err, loader.ErrConnection):
		return ExitConnectionError
	case errors.Is(err, loader.ErrSchema):
		return ExitSchemaError
	case errors.Is(err, loader.ErrImportAborted):
		return ExitImportAborted
	}
	return ExitGeneralError
}
