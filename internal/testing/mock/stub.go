package mock

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/transport"
)

var _ transport.Transport = (*StubTransport)(nil)

// StubTransport is an in-memory transport with scripted behaviour and call
// counters. It maps failures onto the error taxonomy the way real
// transports do.
type StubTransport struct {
	Server     string
	TransportK api.TransportKind

	Operations []api.Operation
	OpenErr    error
	ListErr    error
	// StallOpen blocks Open until the context ends.
	StallOpen bool
	// StallInvoke blocks Invoke until the context ends.
	StallInvoke bool
	// Handler answers invocations. When nil every call returns a text block "ok".
	Handler func(operation string, arguments json.RawMessage) (*api.Envelope, error)

	OpenCalls   atomic.Int32
	ListCalls   atomic.Int32
	InvokeCalls atomic.Int32
	CloseCalls  atomic.Int32

	mu   sync.Mutex
	open bool
	args []json.RawMessage
}

// NewStubTransport creates a stub for server exposing ops.
func NewStubTransport(server string, ops ...api.Operation) *StubTransport {
	return &StubTransport{Server: server, TransportK: api.TransportStdio, Operations: ops}
}

// Factory returns a transport factory that always hands out this stub.
func (s *StubTransport) Factory() transport.Factory {
	return func(api.CapabilityServer) (transport.Transport, error) { return s, nil }
}

// Kind implements transport.Transport.
func (s *StubTransport) Kind() api.TransportKind {
	if s.TransportK == "" {
		return api.TransportStdio
	}
	return s.TransportK
}

// Open implements transport.Transport.
func (s *StubTransport) Open(ctx context.Context) error {
	s.OpenCalls.Add(1)
	if s.StallOpen {
		<-ctx.Done()
		return s.ctxError(ctx, "connect", "")
	}
	if s.OpenErr != nil {
		return &api.ConnectionError{Server: s.Server, Err: s.OpenErr}
	}
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
	return nil
}

// ListOperations implements transport.Transport.
func (s *StubTransport) ListOperations(ctx context.Context) ([]api.Operation, error) {
	s.ListCalls.Add(1)
	if !s.isOpen() {
		return nil, &api.ConnectionError{Server: s.Server, Err: errors.New("transport not open")}
	}
	if s.ListErr != nil {
		return nil, &api.ProtocolError{Server: s.Server, Err: s.ListErr}
	}
	out := make([]api.Operation, len(s.Operations))
	copy(out, s.Operations)
	return out, nil
}

// Invoke implements transport.Transport.
func (s *StubTransport) Invoke(ctx context.Context, operation string, arguments json.RawMessage) (*api.Envelope, error) {
	s.InvokeCalls.Add(1)
	if !s.isOpen() {
		return nil, &api.ConnectionError{Server: s.Server, Err: errors.New("transport not open")}
	}

	s.mu.Lock()
	s.args = append(s.args, arguments)
	s.mu.Unlock()

	if s.StallInvoke {
		<-ctx.Done()
		return nil, s.ctxError(ctx, "invoke", operation)
	}
	if s.Handler != nil {
		return s.Handler(operation, arguments)
	}
	return &api.Envelope{Content: []api.ContentBlock{{Kind: api.ContentText, Text: "ok"}}}, nil
}

// Close implements transport.Transport.
func (s *StubTransport) Close() error {
	s.CloseCalls.Add(1)
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
	return nil
}

// Arguments returns the raw arguments of every invocation so far.
func (s *StubTransport) Arguments() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]json.RawMessage(nil), s.args...)
}

func (s *StubTransport) isOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *StubTransport) ctxError(ctx context.Context, phase, operation string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &api.TimeoutError{Server: s.Server, Operation: operation, Phase: phase, Err: ctx.Err()}
	}
	return &api.ConnectionError{Server: s.Server, Err: ctx.Err()}
}

// TextEnvelope builds a successful envelope with one text block.
func TextEnvelope(text string) *api.Envelope {
	return &api.Envelope{Content: []api.ContentBlock{{Kind: api.ContentText, Text: text}}}
}

// Op builds an operation with the given parameters for tests.
func Op(server, name, description string, params ...api.Parameter) api.Operation {
	return api.Operation{Server: server, Name: name, Description: description, Parameters: params}
}
