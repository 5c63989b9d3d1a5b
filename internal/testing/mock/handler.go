package mock

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/giantswarm/lantern/internal/template"
	"github.com/giantswarm/lantern/pkg/logging"
)

// ToolHandler handles mock tool calls with configurable responses
type ToolHandler struct {
	config         ToolConfig
	templateEngine *template.Engine
}

// NewToolHandler creates a new mock tool handler
func NewToolHandler(config ToolConfig, templateEngine *template.Engine) *ToolHandler {
	return &ToolHandler{
		config:         config,
		templateEngine: templateEngine,
	}
}

// RemoteError is returned by HandleCall when the selected response is an error.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// HandleCall processes a tool call and returns the configured response
func (h *ToolHandler) HandleCall(ctx context.Context, args map[string]any) (any, error) {
	logging.Debug("MockServer", "Tool %s called with args: %v", h.config.Name, args)

	mergedArgs := template.Merge(h.defaults(), args)

	selected := h.selectResponse(mergedArgs)
	if selected == nil {
		return nil, fmt.Errorf("no response configured for tool %s", h.config.Name)
	}

	if selected.Delay != "" {
		if duration, err := time.ParseDuration(selected.Delay); err == nil {
			select {
			case <-time.After(duration):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if selected.Error != "" {
		msg, err := h.templateEngine.Render(selected.Error, mergedArgs)
		if err != nil {
			return nil, fmt.Errorf("failed to render error message: %w", err)
		}
		return nil, &RemoteError{Message: msg}
	}

	rendered, err := h.templateEngine.Replace(selected.Response, mergedArgs)
	if err != nil {
		return nil, fmt.Errorf("failed to render response: %w", err)
	}
	return rendered, nil
}

func (h *ToolHandler) selectResponse(args map[string]any) *ToolResponse {
	for i := range h.config.Responses {
		if matchesCondition(h.config.Responses[i].Condition, args) {
			return &h.config.Responses[i]
		}
	}
	// If no specific response matched, use the first one as fallback
	if len(h.config.Responses) > 0 {
		return &h.config.Responses[0]
	}
	return nil
}

// defaults returns the default values declared in the input schema
func (h *ToolHandler) defaults() map[string]any {
	out := make(map[string]any)
	properties, _ := h.config.InputSchema["properties"].(map[string]any)
	for name, def := range properties {
		if defMap, ok := def.(map[string]any); ok {
			if value, has := defMap["default"]; has {
				out[name] = value
			}
		}
	}
	return out
}

func matchesCondition(condition, args map[string]any) bool {
	for key, expected := range condition {
		actual, exists := args[key]
		if !exists || !valuesEqual(expected, actual) {
			return false
		}
	}
	return true
}

// valuesEqual compares two values, treating YAML and JSON numbers alike
func valuesEqual(expected, actual any) bool {
	if reflect.DeepEqual(expected, actual) {
		return true
	}
	return fmt.Sprintf("%v", expected) == fmt.Sprintf("%v", actual)
}
