package mock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/pkg/logging"

	"github.com/mark3labs/mcp-go/server"
)

// HTTPServer serves a mock server over streamable HTTP or SSE on a local port.
type HTTPServer struct {
	mockServer *Server
	transport  api.TransportKind

	mu            sync.RWMutex
	httpServer    *http.Server
	listener      net.Listener
	port          int
	running       bool
	shutdownError error
}

// NewHTTPServer wraps mockServer. Transport must be streamable-http or sse.
func NewHTTPServer(mockServer *Server, transport api.TransportKind) (*HTTPServer, error) {
	if !transport.IsRemote() {
		return nil, fmt.Errorf("mock HTTP server does not support transport %q", transport)
	}
	return &HTTPServer{
		mockServer: mockServer,
		transport:  transport,
	}, nil
}

// Start listens on a dynamically allocated loopback port and serves in the
// background. It returns the port.
func (s *HTTPServer) Start(_ context.Context) (int, error) {
	return s.listen("127.0.0.1:0")
}

// StartOnAddr listens on a fixed address such as ":8090".
func (s *HTTPServer) StartOnAddr(_ context.Context, addr string) (int, error) {
	return s.listen(addr)
}

func (s *HTTPServer) listen(addr string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.port, nil
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port

	var handler http.Handler
	switch s.transport {
	case api.TransportSSE:
		handler = server.NewSSEServer(
			s.mockServer.mcpServer,
			server.WithBaseURL(fmt.Sprintf("http://127.0.0.1:%d", s.port)),
			server.WithSSEEndpoint("/sse"),
			server.WithMessageEndpoint("/message"),
		)
	default:
		handler = server.NewStreamableHTTPServer(s.mockServer.mcpServer)
	}

	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func(srv *http.Server, l net.Listener) {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.mu.Lock()
			s.shutdownError = err
			s.mu.Unlock()
			logging.Error("MockServer", err, "Mock HTTP server stopped unexpectedly")
		}
	}(s.httpServer, listener)

	s.running = true
	logging.Debug("MockServer", "Mock HTTP server (%s) listening on port %d", s.transport, s.port)
	return s.port, nil
}

// Stop gracefully shuts down the HTTP server
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	shutdownCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		// Force close if graceful shutdown fails; SSE streams never drain on their own.
		_ = s.httpServer.Close()
	}

	s.running = false
	s.httpServer = nil
	return nil
}

// Port returns the port the server is listening on
func (s *HTTPServer) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

// Endpoint returns the full endpoint URL, or "" when stopped.
func (s *HTTPServer) Endpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return ""
	}
	if s.transport == api.TransportSSE {
		return fmt.Sprintf("http://127.0.0.1:%d/sse", s.port)
	}
	return fmt.Sprintf("http://127.0.0.1:%d/mcp", s.port)
}

// Descriptor returns a server descriptor pointing at this mock server.
func (s *HTTPServer) Descriptor() api.CapabilityServer {
	return api.CapabilityServer{
		Name:      s.mockServer.name,
		Transport: s.transport,
		URL:       s.Endpoint(),
	}
}

// Err returns any error that occurred while serving
func (s *HTTPServer) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shutdownError
}
