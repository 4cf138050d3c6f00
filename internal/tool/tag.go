package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jamesainslie/go-nereval"
)

// Tagger finds entities in text.
type Tagger interface {
	Tag(ctx context.Context, text string) ([]nereval.Entity, error)
}

// MetadataTagText describes the tag_text tool.
var MetadataTagText = &mcp.Tool{
	Name: "tag_text",
	Description: "Run the loaded named entity recognition model over text. " +
		"Returns each entity with its type, surface text, byte offsets into the input, " +
		"token indices and a confidence score between 0 and 1.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"text"},
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Raw text to tag",
			},
		},
	},
}

// InputTagText is the input for the TagText tool.
type InputTagText struct {
	Text string `json:"text"`
}

// OutputTagText is the output for the TagText tool.
type OutputTagText struct {
	Entities []nereval.Entity `json:"entities"`
}

// TagText returns a handler that tags text with tagger.
func TagText(tagger Tagger) mcp.ToolHandlerFor[InputTagText, OutputTagText] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InputTagText) (*mcp.CallToolResult, OutputTagText, error) {
		if input.Text == "" {
			return nil, OutputTagText{}, fmt.Errorf("text is required")
		}

		entities, err := tagger.Tag(ctx, input.Text)
		if err != nil {
			return nil, OutputTagText{}, err
		}
		if entities == nil {
			entities = []nereval.Entity{}
		}
		return nil, OutputTagText{Entities: entities}, nil
	}
}
