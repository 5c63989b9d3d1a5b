package mock

// ToolConfig defines configuration for a mock tool
type ToolConfig struct {
	// Name is the unique identifier for the tool
	Name string `yaml:"name"`
	// Description describes what the tool does
	Description string `yaml:"description"`
	// InputSchema defines the expected input schema (JSON Schema)
	InputSchema map[string]any `yaml:"input_schema"`
	// Responses defines possible responses for this tool
	Responses []ToolResponse `yaml:"responses"`
}

// ToolResponse defines a conditional response for a mock tool
type ToolResponse struct {
	// Condition defines parameter matching for this response (optional).
	// If empty, this response is used as a fallback.
	Condition map[string]any `yaml:"condition,omitempty"`
	// Response is the response data to return. Strings are rendered as templates.
	Response any `yaml:"response,omitempty"`
	// Error is returned as an error result instead of Response
	Error string `yaml:"error,omitempty"`
	// Delay simulates response latency (e.g., "2s", "500ms")
	Delay string `yaml:"delay,omitempty"`
}

// FileConfig is the layout of a mock server definition file.
type FileConfig struct {
	Name  string       `yaml:"name,omitempty"`
	Tools []ToolConfig `yaml:"tools"`
}
