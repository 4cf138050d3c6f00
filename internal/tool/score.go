package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jamesainslie/go-nereval/score"
)

// MetadataScoreTags describes the score_tags tool.
var MetadataScoreTags = &mcp.Tool{
	Name: "score_tags",
	Description: "Score predicted tag sequences against gold tag sequences with exact entity matching. " +
		"Returns micro-averaged precision (reported as accuracy), recall and F1 over all entities, " +
		"per-type metrics rounded to 4 decimals for every type present in the gold tags, " +
		"and the gold, predicted and correct entity counts.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"sentences"},
		"properties": map[string]interface{}{
			"sentences": map[string]interface{}{
				"type":        "array",
				"description": "Sentences to score. Entities only match within the same sentence.",
				"items": map[string]interface{}{
					"type":     "object",
					"required": []string{"gold", "pred"},
					"properties": map[string]interface{}{
						"gold": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
						"pred": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
					},
				},
			},
			"scheme": schemeProperty,
		},
	},
}

// TagPair holds the gold and predicted tags of one sentence.
type TagPair struct {
	Gold []string `json:"gold"`
	Pred []string `json:"pred"`
}

// InputScoreTags is the input for the ScoreTags tool.
type InputScoreTags struct {
	Sentences []TagPair `json:"sentences"`
	Scheme    string    `json:"scheme"`
}

// ScoreTags scores every sentence and returns the aggregate report.
func ScoreTags(_ context.Context, _ *mcp.CallToolRequest, input InputScoreTags) (*mcp.CallToolResult, score.Report, error) {
	if len(input.Sentences) == 0 {
		return nil, score.Report{}, fmt.Errorf("sentences are required")
	}

	scheme, err := parseScheme(input.Scheme)
	if err != nil {
		return nil, score.Report{}, err
	}

	acc := score.NewSeqEntityScore(nil, scheme)
	for i, s := range input.Sentences {
		if err := acc.UpdateTags(s.Gold, s.Pred); err != nil {
			return nil, score.Report{}, fmt.Errorf("sentence %d: %w", i, err)
		}
	}
	return nil, acc.Result(), nil
}
