package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error codes returned by Classify. They are stable and used in logs, metrics
// and CLI exit codes.
const (
	CodeOK                = "ok"
	CodeConnection        = "connection"
	CodeTimeout           = "timeout"
	CodeProtocol          = "protocol"
	CodeNotFound          = "not_found"
	CodeNotReady          = "not_ready"
	CodeValidation        = "validation"
	CodeMalformedResponse = "malformed_response"
	CodeInvocation        = "invocation"
	CodeUnknown           = "unknown"
)

// ConnectionError reports that a capability server could not be reached, or
// that an established connection broke.
type ConnectionError struct {
	Server string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to server %s failed: %v", e.Server, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError reports that a transport step exceeded the configured budget.
type TimeoutError struct {
	Server    string
	Operation string
	// Phase is one of "connect", "list" or "invoke".
	Phase   string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	target := e.Server
	if e.Operation != "" {
		target = e.Server + "/" + e.Operation
	}
	if e.Timeout > 0 {
		return fmt.Sprintf("%s on %s timed out after %s", e.Phase, target, e.Timeout)
	}
	return fmt.Sprintf("%s on %s timed out", e.Phase, target)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed handshake or operation listing.
type ProtocolError struct {
	Server string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error from server %s: %v", e.Server, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// NotFoundError represents a server or operation that does not exist.
type NotFoundError struct {
	// ResourceType is "server" or "operation".
	ResourceType string
	ResourceName string
	// Server qualifies operation lookups.
	Server string
}

func (e *NotFoundError) Error() string {
	if e.Server != "" {
		return fmt.Sprintf("%s %s not found on server %s", e.ResourceType, e.ResourceName, e.Server)
	}
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// NewServerNotFoundError creates a NotFoundError for an unknown server.
func NewServerNotFoundError(name string) *NotFoundError {
	return &NotFoundError{ResourceType: "server", ResourceName: name}
}

// NewOperationNotFoundError creates a NotFoundError for an unknown operation.
func NewOperationNotFoundError(server, operation string) *NotFoundError {
	return &NotFoundError{ResourceType: "operation", ResourceName: operation, Server: server}
}

// NotReadyError reports that a session has not reached the Ready state.
type NotReadyError struct {
	Server string
	State  SessionState
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("server %s is not ready (state %s)", e.Server, e.State)
}

// ValidationError reports arguments that do not match an operation's schema.
// It is always raised before any transport call.
type ValidationError struct {
	Server    string
	Operation string
	Problems  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s/%s: %s", e.Server, e.Operation, strings.Join(e.Problems, "; "))
}

// MalformedResponseError reports an invocation response without a recognizable content kind.
type MalformedResponseError struct {
	Server    string
	Operation string
	Reason    string
	Err       error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s/%s: %s", e.Server, e.Operation, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// InvocationError reports a failed call. Remote is set when the server itself
// flagged the result as an error rather than the call failing in transit.
type InvocationError struct {
	Server    string
	Operation string
	Remote    bool
	Message   string
	Err       error
}

func (e *InvocationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Remote {
		return fmt.Sprintf("%s/%s returned an error: %s", e.Server, e.Operation, msg)
	}
	return fmt.Sprintf("invoking %s/%s failed: %s", e.Server, e.Operation, msg)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// IsConnection checks if an error is or wraps a ConnectionError.
func IsConnection(err error) bool {
	var target *ConnectionError
	return errors.As(err, &target)
}

// IsTimeout checks if an error is or wraps a TimeoutError.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsProtocol checks if an error is or wraps a ProtocolError.
func IsProtocol(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}

// IsNotFound checks if an error is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsNotReady checks if an error is or wraps a NotReadyError.
func IsNotReady(err error) bool {
	var target *NotReadyError
	return errors.As(err, &target)
}

// IsValidation checks if an error is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsMalformedResponse checks if an error is or wraps a MalformedResponseError.
func IsMalformedResponse(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}

// IsInvocation checks if an error is or wraps an InvocationError.
func IsInvocation(err error) bool {
	var target *InvocationError
	return errors.As(err, &target)
}

// Classify maps an error to its taxonomy code. The order matters: a timeout
// wrapped inside an invocation error is reported as a timeout.
func Classify(err error) string {
	switch {
	case err == nil:
		return CodeOK
	case IsValidation(err):
		return CodeValidation
	case IsTimeout(err):
		return CodeTimeout
	case IsNotReady(err):
		return CodeNotReady
	case IsNotFound(err):
		return CodeNotFound
	case IsConnection(err):
		return CodeConnection
	case IsProtocol(err):
		return CodeProtocol
	case IsMalformedResponse(err):
		return CodeMalformedResponse
	case IsInvocation(err):
		return CodeInvocation
	default:
		return CodeUnknown
	}
}

// IsCategorized reports whether err belongs to the typed taxonomy.
func IsCategorized(err error) bool {
	code := Classify(err)
	return code != CodeUnknown && code != CodeOK
}

// IsDeadline reports whether err stems from an expired context deadline.
func IsDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
