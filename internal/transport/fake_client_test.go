package transport

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// fakeClient records calls and answers with canned results.
type fakeClient struct {
	initErr   error
	tools     []mcp.Tool
	listErr   error
	result    *mcp.CallToolResult
	callErr   error
	callDelay time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	closed      atomic.Int32

	mu    sync.Mutex
	calls []string
	args  []json.RawMessage
}

func (f *fakeClient) Initialize(ctx context.Context, _ mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &mcp.InitializeResult{}
	res.ServerInfo = mcp.Implementation{Name: "fake", Version: "0.0.1"}
	return res, nil
}

func (f *fakeClient) ListTools(_ context.Context, _ mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &mcp.ListToolsResult{Tools: f.tools}, nil
}

func (f *fakeClient) CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, req.Params.Name)
	if raw, ok := req.Params.Arguments.(json.RawMessage); ok {
		f.args = append(f.args, raw)
	}
	f.mu.Unlock()

	if f.callDelay > 0 {
		select {
		case <-time.After(f.callDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.result, nil
}

func (f *fakeClient) Close() error {
	f.closed.Add(1)
	return nil
}

func (f *fakeClient) callNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func fakeFactory(c *fakeClient) func(context.Context) (mcpClient, error) {
	return func(context.Context) (mcpClient, error) { return c, nil }
}
