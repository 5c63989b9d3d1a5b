package api

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, CodeOK},
		{"connection", &ConnectionError{Server: "fs", Err: errors.New("refused")}, CodeConnection},
		{"timeout", &TimeoutError{Server: "fs", Phase: "connect"}, CodeTimeout},
		{"protocol", &ProtocolError{Server: "fs", Err: errors.New("bad json")}, CodeProtocol},
		{"not found", NewServerNotFoundError("fs"), CodeNotFound},
		{"not ready", &NotReadyError{Server: "fs", State: StateFailed}, CodeNotReady},
		{"validation", &ValidationError{Server: "fs", Operation: "read_file"}, CodeValidation},
		{"malformed", &MalformedResponseError{Server: "fs", Operation: "read_file"}, CodeMalformedResponse},
		{"invocation", &InvocationError{Server: "fs", Operation: "read_file"}, CodeInvocation},
		{"wrapped not found", fmt.Errorf("resolve: %w", NewOperationNotFoundError("fs", "x")), CodeNotFound},
		{
			"timeout inside invocation",
			&InvocationError{Server: "fs", Operation: "op", Err: &TimeoutError{Server: "fs", Phase: "invoke"}},
			CodeTimeout,
		},
		{"plain", errors.New("boom"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestIsCategorized(t *testing.T) {
	assert.False(t, IsCategorized(nil))
	assert.False(t, IsCategorized(errors.New("boom")))
	assert.True(t, IsCategorized(&ProtocolError{Server: "fs"}))
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "operation not found names the server",
			err:  NewOperationNotFoundError("fs", "list_files"),
			want: "operation list_files not found on server fs",
		},
		{
			name: "server not found",
			err:  NewServerNotFoundError("github"),
			want: "server github not found",
		},
		{
			name: "timeout with budget",
			err:  &TimeoutError{Server: "fs", Operation: "read_file", Phase: "invoke", Timeout: 2 * time.Second},
			want: "invoke on fs/read_file timed out after 2s",
		},
		{
			name: "validation lists every problem",
			err:  &ValidationError{Server: "fs", Operation: "read_file", Problems: []string{"missing required parameter \"path\"", "unknown parameter \"x\""}},
			want: "invalid arguments for fs/read_file: missing required parameter \"path\"; unknown parameter \"x\"",
		},
		{
			name: "remote invocation error",
			err:  &InvocationError{Server: "fs", Operation: "read_file", Remote: true, Message: "no such file"},
			want: "fs/read_file returned an error: no such file",
		},
		{
			name: "not ready",
			err:  &NotReadyError{Server: "fs", State: StateConnecting},
			want: "server fs is not ready (state Connecting)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := fmt.Errorf("wrapped: %w", &TimeoutError{Server: "fs", Phase: "connect", Err: cause})

	assert.True(t, IsTimeout(err))
	assert.True(t, IsDeadline(err))
	assert.False(t, IsConnection(err))
}

func TestToolFilterPermits(t *testing.T) {
	tests := []struct {
		name   string
		filter ToolFilter
		tool   string
		want   bool
	}{
		{"empty filter permits everything", ToolFilter{}, "anything", true},
		{"allow-list permits listed", ToolFilter{Allow: []string{"read_file"}}, "read_file", true},
		{"allow-list hides unlisted", ToolFilter{Allow: []string{"read_file"}}, "list_files", false},
		{"block-list hides listed", ToolFilter{Block: []string{"delete_file"}}, "delete_file", false},
		{"block-list permits unlisted", ToolFilter{Block: []string{"delete_file"}}, "read_file", true},
		{"match is case-sensitive", ToolFilter{Allow: []string{"Read_File"}}, "read_file", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Permits(tt.tool))
		})
	}
}

func TestCapabilityServerClone(t *testing.T) {
	orig := CapabilityServer{
		Name:    "fs",
		Args:    []string{"a"},
		Env:     map[string]string{"K": "V"},
		Headers: map[string]string{"H": "1"},
		Filter:  ToolFilter{Allow: []string{"read_file"}},
	}

	clone := orig.Clone()
	clone.Args[0] = "b"
	clone.Env["K"] = "changed"
	clone.Headers["H"] = "2"
	clone.Filter.Allow[0] = "other"

	assert.Equal(t, "a", orig.Args[0])
	assert.Equal(t, "V", orig.Env["K"])
	assert.Equal(t, "1", orig.Headers["H"])
	assert.Equal(t, "read_file", orig.Filter.Allow[0])
}

func TestEffectiveTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, CapabilityServer{}.EffectiveTimeout())
	assert.Equal(t, 2*time.Second, CapabilityServer{Timeout: 2 * time.Second}.EffectiveTimeout())
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "Ready", StateReady.String())
	assert.Equal(t, "Failed", StateFailed.String())
	assert.Equal(t, "Unknown", SessionState(42).String())
}
