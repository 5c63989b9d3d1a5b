package api

import (
	"encoding/json"
	"sort"
	"time"
)

// TransportKind identifies how lantern talks to a capability server.
type TransportKind string

const (
	// TransportStdio spawns the server as a child process and speaks over its standard streams.
	TransportStdio TransportKind = "stdio"
	// TransportStreamableHTTP connects to a remote server using streamable HTTP.
	TransportStreamableHTTP TransportKind = "streamable-http"
	// TransportSSE connects to a remote server using Server-Sent Events.
	TransportSSE TransportKind = "sse"
)

// TransportKinds lists every supported transport in a stable order.
var TransportKinds = []TransportKind{TransportStdio, TransportStreamableHTTP, TransportSSE}

// IsRemote reports whether the transport connects over HTTP.
func (k TransportKind) IsRemote() bool {
	return k == TransportStreamableHTTP || k == TransportSSE
}

// Valid reports whether k is one of the supported transport kinds.
func (k TransportKind) Valid() bool {
	for _, known := range TransportKinds {
		if k == known {
			return true
		}
	}
	return false
}

// DefaultTimeout applies to connect, list and invoke when a server leaves its timeout unset.
const DefaultTimeout = 30 * time.Second

// CachePolicy controls how often a session asks its server for the operation list.
type CachePolicy struct {
	// CacheOperationsList lists operations at most once per Ready transition.
	CacheOperationsList bool `yaml:"cacheOperationsList" json:"cacheOperationsList"`
}

// ToolFilter hides operations from discovery and invocation.
// Allow and Block are mutually exclusive.
type ToolFilter struct {
	Allow []string `yaml:"allow,omitempty" json:"allow,omitempty"`
	Block []string `yaml:"block,omitempty" json:"block,omitempty"`
}

// IsZero reports whether the filter lets every operation through.
func (f ToolFilter) IsZero() bool {
	return len(f.Allow) == 0 && len(f.Block) == 0
}

// Permits reports whether an operation name survives the filter.
func (f ToolFilter) Permits(name string) bool {
	if len(f.Allow) > 0 {
		for _, allowed := range f.Allow {
			if allowed == name {
				return true
			}
		}
		return false
	}
	for _, blocked := range f.Block {
		if blocked == name {
			return false
		}
	}
	return true
}

// CapabilityServer describes one configured capability server.
type CapabilityServer struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Transport   TransportKind `yaml:"transport" json:"transport"`

	// stdio
	Command string            `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// streamable-http and sse
	URL     string            `yaml:"url,omitempty" json:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	Cache   CachePolicy   `yaml:"cache,omitempty" json:"cache,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Filter  ToolFilter    `yaml:"filter,omitempty" json:"filter,omitempty"`
}

// EffectiveTimeout returns the configured timeout or DefaultTimeout when unset.
func (s CapabilityServer) EffectiveTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}

// Clone returns a deep copy so callers cannot mutate a registered descriptor.
func (s CapabilityServer) Clone() CapabilityServer {
	out := s
	out.Args = append([]string(nil), s.Args...)
	out.Env = cloneMap(s.Env)
	out.Headers = cloneMap(s.Headers)
	out.Filter = ToolFilter{
		Allow: append([]string(nil), s.Filter.Allow...),
		Block: append([]string(nil), s.Filter.Block...),
	}
	return out
}

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// SessionState is the lifecycle state of a server session.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateConnected
	StateListing
	StateReady
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateListing:
		return "Listing"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Parameter is one entry of an operation's parameter schema.
type Parameter struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Required    bool   `json:"required" yaml:"required"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Operation is a callable unit exposed by a capability server.
type Operation struct {
	Server      string      `json:"server" yaml:"server"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  []Parameter `json:"parameters" yaml:"parameters"`
}

// Parameter returns the named parameter.
func (o Operation) Parameter(name string) (Parameter, bool) {
	for _, p := range o.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// RequiredParameters returns the names of all required parameters in declaration order.
func (o Operation) RequiredParameters() []string {
	var names []string
	for _, p := range o.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// SortParameters orders parameters by name. Schema properties arrive as an
// unordered map, so every producer of an Operation sorts them.
func SortParameters(params []Parameter) {
	sort.SliceStable(params, func(i, j int) bool {
		return params[i].Name < params[j].Name
	})
}

// Content kinds understood by the invoker.
const (
	ContentText         = "text"
	ContentImage        = "image"
	ContentAudio        = "audio"
	ContentResource     = "resource"
	ContentResourceLink = "resource_link"
)

// ContentBlock is one discriminated entry of a response envelope.
type ContentBlock struct {
	Kind     string `json:"kind" yaml:"kind"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	Data     string `json:"data,omitempty" yaml:"data,omitempty"`
	MIMEType string `json:"mimeType,omitempty" yaml:"mimeType,omitempty"`
	URI      string `json:"uri,omitempty" yaml:"uri,omitempty"`
}

// Envelope is the raw response of an invocation as returned by a transport.
type Envelope struct {
	Content    []ContentBlock  `json:"content"`
	Structured json.RawMessage `json:"structured,omitempty"`
	IsError    bool            `json:"isError,omitempty"`
}

// InvocationRequest names an operation and the arguments to call it with.
type InvocationRequest struct {
	Server    string         `json:"server"`
	Operation string         `json:"operation"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// InvocationResult is the parsed outcome of one invocation.
type InvocationResult struct {
	ID         string         `json:"id"`
	Server     string         `json:"server"`
	Operation  string         `json:"operation"`
	Success    bool           `json:"success"`
	Content    string         `json:"content,omitempty"`
	Blocks     []ContentBlock `json:"blocks,omitempty"`
	Structured any            `json:"structured,omitempty"`
	Duration   time.Duration  `json:"duration"`
	Err        error          `json:"-"`
}

// ErrorMessage returns the failure message, or an empty string for successful results.
func (r *InvocationResult) ErrorMessage() string {
	if r == nil || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
