package metatools

// Meta-tool names.
const (
	ToolListServers       = "list_servers"
	ToolReadManifest      = "read_manifest"
	ToolDescribeOperation = "describe_operation"
	ToolCallOperation     = "call_operation"
	ToolConnectServer     = "connect_server"
)

// ToolMetadata describes one meta-tool.
type ToolMetadata struct {
	Name        string
	Description string
	Args        []ArgMetadata
}

// ArgMetadata describes one meta-tool argument.
type ArgMetadata struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// ServerInfo is one entry of the list_servers response.
type ServerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Transport   string `json:"transport"`
	State       string `json:"state"`
	Operations  int    `json:"operations"`
	Manifest    bool   `json:"manifest"`
	Error       string `json:"error,omitempty"`
}

// ListServersResponse is the response of list_servers.
type ListServersResponse struct {
	Servers []ServerInfo `json:"servers"`
}

// CallOperationResponse is the response of call_operation.
type CallOperationResponse struct {
	ID         string `json:"id"`
	Server     string `json:"server"`
	Operation  string `json:"operation"`
	Success    bool   `json:"success"`
	Content    string `json:"content,omitempty"`
	Structured any    `json:"structured,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorCode  string `json:"errorCode,omitempty"`
	DurationMs int64  `json:"durationMs"`
}
