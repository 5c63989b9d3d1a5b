package invoker

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/giantswarm/lantern/internal/api"
)

var knownKinds = map[string]bool{
	api.ContentText:         true,
	api.ContentImage:        true,
	api.ContentAudio:        true,
	api.ContentResource:     true,
	api.ContentResourceLink: true,
}

// Extract parses a raw envelope into a result. The text of all text blocks
// becomes Content, joined by newlines. A result the server flagged as an
// error is returned unsuccessful together with a remote InvocationError.
func Extract(server, operation string, env *api.Envelope) (*api.InvocationResult, error) {
	malformed := func(reason string, err error) error {
		return &api.MalformedResponseError{Server: server, Operation: operation, Reason: reason, Err: err}
	}

	if env == nil || (len(env.Content) == 0 && len(env.Structured) == 0) {
		return nil, malformed("empty envelope", nil)
	}

	result := &api.InvocationResult{
		Server:    server,
		Operation: operation,
		Blocks:    make([]api.ContentBlock, 0, len(env.Content)),
	}

	var texts []string
	for i, block := range env.Content {
		if !knownKinds[block.Kind] {
			return nil, malformed(fmt.Sprintf("unrecognized content kind %q in block %d", block.Kind, i), nil)
		}
		if block.Kind == api.ContentText {
			texts = append(texts, block.Text)
		}
		result.Blocks = append(result.Blocks, block)
	}
	result.Content = strings.Join(texts, "\n")

	if len(env.Structured) > 0 {
		var structured any
		if err := json.Unmarshal(env.Structured, &structured); err != nil {
			return nil, malformed("invalid structured content", err)
		}
		result.Structured = structured
	}

	if env.IsError {
		result.Err = &api.InvocationError{
			Server:    server,
			Operation: operation,
			Remote:    true,
			Message:   result.Content,
		}
		return result, result.Err
	}

	result.Success = true
	return result, nil
}
