package cli

import (
	"errors"
	"fmt"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/config"
)

// Exit codes for lantern commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general failure.
	ExitCodeError = 1
	// ExitCodeUsage indicates invalid arguments or configuration.
	ExitCodeUsage = 2
	// ExitCodeNotFound indicates an unknown server or operation, or a server that is not ready.
	ExitCodeNotFound = 3
	// ExitCodeTimeout indicates a deadline expired.
	ExitCodeTimeout = 4
)

// UsageError marks an error caused by how the command was invoked.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// PartialFailureError reports that some servers failed while others succeeded.
type PartialFailureError struct {
	Failed []string
	Total  int
}

func (e *PartialFailureError) Error() string {
	if len(e.Failed) == 1 {
		return fmt.Sprintf("1 of %d servers failed: %s", e.Total, e.Failed[0])
	}
	return fmt.Sprintf("%d of %d servers failed", len(e.Failed), e.Total)
}

// ExitCode determines the exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitCodeUsage
	}
	var invalid config.ValidationErrors
	if errors.As(err, &invalid) {
		return ExitCodeUsage
	}
	var unreadable config.ConfigurationErrorCollection
	if errors.As(err, &unreadable) {
		return ExitCodeUsage
	}

	switch api.Classify(err) {
	case api.CodeValidation:
		return ExitCodeUsage
	case api.CodeNotFound, api.CodeNotReady:
		return ExitCodeNotFound
	case api.CodeTimeout:
		return ExitCodeTimeout
	default:
		return ExitCodeError
	}
}
