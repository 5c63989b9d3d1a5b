package transport

import (
	"encoding/json"
	"fmt"

	"github.com/giantswarm/lantern/internal/api"

	"github.com/mark3labs/mcp-go/mcp"
)

// envelopeFromResult converts an mcp-go call result into the transport
// neutral envelope. Content kinds outside the known set are kept with their
// declared kind so the invoker can reject them.
func envelopeFromResult(server, operation string, result *mcp.CallToolResult) (*api.Envelope, error) {
	if result == nil {
		return nil, &api.MalformedResponseError{Server: server, Operation: operation, Reason: "empty response"}
	}

	env := &api.Envelope{
		Content: make([]api.ContentBlock, 0, len(result.Content)),
		IsError: result.IsError,
	}

	for _, content := range result.Content {
		env.Content = append(env.Content, contentBlock(content))
	}

	if result.StructuredContent != nil {
		raw, err := json.Marshal(result.StructuredContent)
		if err != nil {
			return nil, &api.MalformedResponseError{
				Server:    server,
				Operation: operation,
				Reason:    "structured content is not valid JSON",
				Err:       err,
			}
		}
		env.Structured = raw
	}

	return env, nil
}

func contentBlock(content mcp.Content) api.ContentBlock {
	switch c := content.(type) {
	case mcp.TextContent:
		return api.ContentBlock{Kind: api.ContentText, Text: c.Text}
	case *mcp.TextContent:
		return api.ContentBlock{Kind: api.ContentText, Text: c.Text}
	case mcp.ImageContent:
		return api.ContentBlock{Kind: api.ContentImage, Data: c.Data, MIMEType: c.MIMEType}
	case *mcp.ImageContent:
		return api.ContentBlock{Kind: api.ContentImage, Data: c.Data, MIMEType: c.MIMEType}
	case mcp.AudioContent:
		return api.ContentBlock{Kind: api.ContentAudio, Data: c.Data, MIMEType: c.MIMEType}
	case *mcp.AudioContent:
		return api.ContentBlock{Kind: api.ContentAudio, Data: c.Data, MIMEType: c.MIMEType}
	case mcp.EmbeddedResource:
		return resourceBlock(c.Resource)
	case *mcp.EmbeddedResource:
		return resourceBlock(c.Resource)
	case mcp.ResourceLink:
		return api.ContentBlock{Kind: api.ContentResourceLink, URI: c.URI, MIMEType: c.MIMEType, Text: c.Name}
	case *mcp.ResourceLink:
		return api.ContentBlock{Kind: api.ContentResourceLink, URI: c.URI, MIMEType: c.MIMEType, Text: c.Name}
	default:
		return api.ContentBlock{Kind: fmt.Sprintf("unknown(%T)", content)}
	}
}

func resourceBlock(rc mcp.ResourceContents) api.ContentBlock {
	if text, ok := mcp.AsTextResourceContents(rc); ok {
		return api.ContentBlock{Kind: api.ContentResource, URI: text.URI, MIMEType: text.MIMEType, Text: text.Text}
	}
	if blob, ok := mcp.AsBlobResourceContents(rc); ok {
		return api.ContentBlock{Kind: api.ContentResource, URI: blob.URI, MIMEType: blob.MIMEType, Data: blob.Blob}
	}
	return api.ContentBlock{Kind: api.ContentResource}
}
