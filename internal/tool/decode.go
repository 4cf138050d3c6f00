// Package tool exposes span decoding, scoring and tagging as MCP tools.
package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jamesainslie/go-nereval/label"
	"github.com/jamesainslie/go-nereval/span"
)

var schemeProperty = map[string]interface{}{
	"type":        "string",
	"description": "Tagging scheme of the tags. One of: bios, bio. Defaults to bios.",
	"enum":        []string{"bios", "bio"},
}

// MetadataDecodeTags describes the decode_tags tool.
var MetadataDecodeTags = &mcp.Tool{
	Name: "decode_tags",
	Description: "Decode a per-token BIO or BIOS tag sequence into entity spans. " +
		"Each span has an entity type and inclusive 0-based start and end token indices. " +
		"An I tag that does not continue an open span of the same type starts a new span.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"tags"},
		"properties": map[string]interface{}{
			"tags": map[string]interface{}{
				"type":        "array",
				"description": "One tag per token, for example [\"B-PER\", \"I-PER\", \"O\"]",
				"items":       map[string]interface{}{"type": "string"},
			},
			"scheme": schemeProperty,
		},
	},
}

// InputDecodeTags is the input for the DecodeTags tool.
type InputDecodeTags struct {
	Tags   []string `json:"tags"`
	Scheme string   `json:"scheme"`
}

// OutputDecodeTags is the output for the DecodeTags tool.
type OutputDecodeTags struct {
	Spans []span.Span `json:"spans"`
}

// DecodeTags decodes the tag sequence into spans.
func DecodeTags(_ context.Context, _ *mcp.CallToolRequest, input InputDecodeTags) (*mcp.CallToolResult, OutputDecodeTags, error) {
	scheme, err := parseScheme(input.Scheme)
	if err != nil {
		return nil, OutputDecodeTags{}, err
	}

	spans, err := span.Decode(input.Tags, scheme)
	if err != nil {
		return nil, OutputDecodeTags{}, fmt.Errorf("decoding tags: %w", err)
	}
	if spans == nil {
		spans = []span.Span{}
	}
	return nil, OutputDecodeTags{Spans: spans}, nil
}

func parseScheme(name string) (label.Scheme, error) {
	if name == "" {
		return label.BIOS, nil
	}
	return label.ParseScheme(name)
}
