// Package transport adapts the three MCP connection kinds (stdio,
// streamable-http and sse) to one Transport interface.
//
// Every transport maps raw client failures onto the api error taxonomy:
// failures while opening become ConnectionError, failures while listing
// become ProtocolError, failures while invoking become InvocationError, and
// any expired deadline becomes TimeoutError. A closed transport answers
// every call with ConnectionError.
//
// The stdio transport owns a child process whose standard streams carry a
// single ordered message stream. Concurrent callers are queued, and an
// invocation that times out terminates the child.
//
// Use New to build the transport matching a server descriptor:
//
//	t, err := transport.New(server)
//	if err != nil {
//	    return err
//	}
//	if err := t.Open(ctx); err != nil {
//	    return err
//	}
//	defer t.Close()
package transport
