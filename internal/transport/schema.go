package transport

import (
	"encoding/json"
	"fmt"

	"github.com/giantswarm/lantern/internal/api"

	"github.com/mark3labs/mcp-go/mcp"
)

// inputSchema is the part of a JSON schema object lantern cares about.
type inputSchema struct {
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// operationFromTool flattens a tool definition into an Operation. Parameters
// are sorted by name because schema properties carry no order.
func operationFromTool(server string, tool mcp.Tool) (api.Operation, error) {
	if tool.Name == "" {
		return api.Operation{}, fmt.Errorf("tool without a name")
	}

	schema := inputSchema{
		Properties: tool.InputSchema.Properties,
		Required:   tool.InputSchema.Required,
	}
	if len(tool.RawInputSchema) > 0 {
		if err := json.Unmarshal(tool.RawInputSchema, &schema); err != nil {
			return api.Operation{}, fmt.Errorf("tool %s has an invalid input schema: %w", tool.Name, err)
		}
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	params := make([]api.Parameter, 0, len(schema.Properties))
	for name, raw := range schema.Properties {
		prop, _ := raw.(map[string]any)
		params = append(params, api.Parameter{
			Name:        name,
			Type:        propertyType(prop),
			Required:    required[name],
			Description: stringField(prop, "description"),
		})
	}
	api.SortParameters(params)

	return api.Operation{
		Server:      server,
		Name:        tool.Name,
		Description: tool.Description,
		Parameters:  params,
	}, nil
}

// propertyType returns the declared JSON type of a schema property. A union
// such as ["string","null"] reports its first member; a missing type is "any".
func propertyType(prop map[string]any) string {
	switch t := prop["type"].(type) {
	case string:
		if t != "" {
			return t
		}
	case []any:
		for _, member := range t {
			if s, ok := member.(string); ok && s != "" {
				return s
			}
		}
	}
	return "any"
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
