package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/pkg/logging"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
)

// stdioCloseGrace is how long a child may take to exit after its stdin is
// closed before it is killed.
const stdioCloseGrace = 2 * time.Second

// StdioTransport talks to a server spawned as a child process. The child's
// stdin and stdout carry a single ordered message stream, so calls are queued
// and sent one at a time.
type StdioTransport struct {
	baseTransport

	// callMu serializes requests on the shared stream.
	callMu sync.Mutex

	procMu   sync.Mutex
	stopProc context.CancelFunc
	killed   bool

	newClient func(ctx context.Context) (mcpClient, error)
}

// NewStdioTransport creates a transport that will spawn server.Command on Open.
func NewStdioTransport(server api.CapabilityServer) *StdioTransport {
	t := &StdioTransport{
		baseTransport: baseTransport{server: server},
	}
	t.abort = t.killProcess
	t.newClient = t.spawn
	return t
}

// Kind implements Transport.
func (t *StdioTransport) Kind() api.TransportKind { return api.TransportStdio }

// Open starts the child process and performs the handshake. A child that
// does not complete the handshake in time is killed.
func (t *StdioTransport) Open(ctx context.Context) error {
	if t.isOpen() {
		return nil
	}

	logging.Debug("Transport", "Starting stdio server %s: %s %v", t.server.Name, t.server.Command, t.server.Args)
	start := time.Now()

	c, err := t.newClient(ctx)
	if err != nil {
		return &api.ConnectionError{Server: t.server.Name, Err: fmt.Errorf("failed to start process: %w", err)}
	}

	if err := t.handshake(ctx, c); err != nil {
		return err
	}

	t.setClient(c)
	logging.Debug("Transport", "Stdio server %s ready after %s", t.server.Name, elapsedSince(start))
	return nil
}

// ListOperations implements Transport.
func (t *StdioTransport) ListOperations(ctx context.Context) ([]api.Operation, error) {
	t.callMu.Lock()
	defer t.callMu.Unlock()

	ops, err := t.listOperations(ctx)
	if err != nil && api.IsTimeout(err) {
		t.terminate()
	}
	return ops, err
}

// Invoke implements Transport. Concurrent callers wait their turn. When the
// deadline expires mid-call the child is killed, since its stream can no
// longer be trusted to line up with the next request.
func (t *StdioTransport) Invoke(ctx context.Context, operation string, arguments json.RawMessage) (*api.Envelope, error) {
	t.callMu.Lock()
	defer t.callMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, mapError(t.server, "invoke", operation, err)
	}

	env, err := t.invoke(ctx, operation, arguments)
	if err != nil && api.IsTimeout(err) {
		t.terminate()
	}
	return env, err
}

// Close closes the child's stdin and waits for it to exit. A child still
// running after stdioCloseGrace is killed.
func (t *StdioTransport) Close() error {
	timer := time.AfterFunc(stdioCloseGrace, func() {
		logging.Warn("Transport", "Stdio server %s did not exit after %s, killing", t.server.Name, stdioCloseGrace)
		t.killProcess()
	})
	defer timer.Stop()

	return t.ignoreKillExit(t.close())
}

// terminate kills the child and releases the client.
func (t *StdioTransport) terminate() {
	logging.Warn("Transport", "Terminating stdio server %s after timeout", t.server.Name)
	t.killProcess()
	if err := t.ignoreKillExit(t.close()); err != nil {
		logging.Debug("Transport", "Error stopping stdio server %s: %v", t.server.Name, err)
	}
}

// killProcess cancels the context the child was started with, which kills it.
// It is safe to call at any time and from any goroutine.
func (t *StdioTransport) killProcess() {
	t.procMu.Lock()
	defer t.procMu.Unlock()
	if t.stopProc != nil {
		t.stopProc()
		t.killed = true
	}
}

// ignoreKillExit drops the exit status of a child that was killed on purpose.
func (t *StdioTransport) ignoreKillExit(err error) error {
	t.procMu.Lock()
	killed := t.killed
	t.procMu.Unlock()

	var exitErr *exec.ExitError
	if killed && errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// spawn launches the child process bound to a context the transport owns, so
// killProcess can stop it regardless of the caller's context.
func (t *StdioTransport) spawn(_ context.Context) (mcpClient, error) {
	procCtx, stop := context.WithCancel(context.Background())

	t.procMu.Lock()
	t.stopProc = stop
	t.killed = false
	t.procMu.Unlock()

	c, err := client.NewStdioMCPClientWithOptions(t.server.Command, envList(t.server.Env), t.server.Args,
		transport.WithCommandFunc(func(_ context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
			cmd := exec.CommandContext(procCtx, command, args...)
			cmd.Env = append(os.Environ(), env...)
			return cmd, nil
		}),
	)
	if err != nil {
		stop()
		return nil, err
	}
	return c, nil
}

// envList renders an environment map as sorted KEY=VALUE pairs.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
