// Package mock provides test doubles for lantern: a configurable mock
// capability server and an in-memory stub transport.
//
// Server speaks the real protocol through mcp-go. It can be served over
// stdio (Start), or over streamable HTTP and SSE with HTTPServer, so
// transport, registry and command tests run against a live endpoint.
// Definitions are YAML files:
//
//	name: files
//	tools:
//	  - name: read_file
//	    description: Read a file
//	    input_schema:
//	      type: object
//	      properties:
//	        path:
//	          type: string
//	      required: [path]
//	    responses:
//	      - condition:
//	          path: /missing
//	        error: "no such file: {{ .path }}"
//	      - response: "contents of {{ .path }}"
//
// Responses are Go templates with the sprig functions. The first response
// whose condition matches the arguments wins; the first response is the
// fallback. A response with error is returned as an error result.
//
// StubTransport implements transport.Transport in memory. It counts every
// call, can stall until its context ends, and is the usual way to test
// session and registry behaviour without a child process.
package mock
