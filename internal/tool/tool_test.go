package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/go-nereval"
	"github.com/jamesainslie/go-nereval/label"
	"github.com/jamesainslie/go-nereval/score"
	"github.com/jamesainslie/go-nereval/span"
)

func TestDecodeTags(t *testing.T) {
	ctx := context.Background()
	req := &mcp.CallToolRequest{}

	tests := []struct {
		name      string
		input     InputDecodeTags
		want      []span.Span
		wantErrIs error
	}{
		{
			name:  "bios default scheme",
			input: InputDecodeTags{Tags: []string{"B-PER", "I-PER", "O", "S-LOC"}},
			want:  []span.Span{{Type: "PER", Start: 0, End: 1}, {Type: "LOC", Start: 3, End: 3}},
		},
		{
			name:  "bio scheme",
			input: InputDecodeTags{Tags: []string{"B-ORG", "O", "I-ORG", "I-ORG"}, Scheme: "bio"},
			want:  []span.Span{{Type: "ORG", Start: 0, End: 0}, {Type: "ORG", Start: 2, End: 3}},
		},
		{
			name:  "no entities returns empty list",
			input: InputDecodeTags{Tags: []string{"O", "O"}},
			want:  []span.Span{},
		},
		{
			name:      "S tag rejected under bio",
			input:     InputDecodeTags{Tags: []string{"S-LOC"}, Scheme: "bio"},
			wantErrIs: label.ErrMalformedTag,
		},
		{
			name:      "unknown scheme",
			input:     InputDecodeTags{Tags: []string{"O"}, Scheme: "iobes"},
			wantErrIs: label.ErrUnknownScheme,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, output, err := DecodeTags(ctx, req, tt.input)
			assert.Nil(t, result)
			if tt.wantErrIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErrIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, output.Spans)
		})
	}
}

func TestScoreTags(t *testing.T) {
	ctx := context.Background()
	req := &mcp.CallToolRequest{}

	t.Run("aggregates across sentences", func(t *testing.T) {
		_, report, err := ScoreTags(ctx, req, InputScoreTags{
			Sentences: []TagPair{
				{Gold: []string{"B-PER", "I-PER", "O"}, Pred: []string{"B-PER", "I-PER", "O"}},
				{Gold: []string{"S-LOC", "O"}, Pred: []string{"O", "S-LOC"}},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, 2, report.Origin)
		assert.Equal(t, 2, report.Found)
		assert.Equal(t, 1, report.Right)
		assert.InDelta(t, 0.5, report.Overall.F1, 1e-12)
		assert.Equal(t, score.Metrics{Precision: 1, Recall: 1, F1: 1}, report.Entities["PER"])
		assert.Equal(t, score.Metrics{}, report.Entities["LOC"])
	})

	t.Run("empty input returns error", func(t *testing.T) {
		_, _, err := ScoreTags(ctx, req, InputScoreTags{})
		assert.ErrorContains(t, err, "sentences are required")
	})

	t.Run("malformed tag names the sentence", func(t *testing.T) {
		_, _, err := ScoreTags(ctx, req, InputScoreTags{
			Sentences: []TagPair{
				{Gold: []string{"O"}, Pred: []string{"O"}},
				{Gold: []string{"X-PER"}, Pred: []string{"O"}},
			},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, label.ErrMalformedTag)
		assert.Contains(t, err.Error(), "sentence 1")
	})
}

type fakeTagger struct {
	entities []nereval.Entity
	err      error
	got      string
}

func (f *fakeTagger) Tag(_ context.Context, text string) ([]nereval.Entity, error) {
	f.got = text
	return f.entities, f.err
}

func TestTagText(t *testing.T) {
	ctx := context.Background()
	req := &mcp.CallToolRequest{}

	t.Run("returns entities", func(t *testing.T) {
		fake := &fakeTagger{entities: []nereval.Entity{{Type: "PER", Text: "Ada", ByteEnd: 3, Score: 0.9}}}
		_, output, err := TagText(fake)(ctx, req, InputTagText{Text: "Ada wrote"})
		require.NoError(t, err)
		assert.Equal(t, "Ada wrote", fake.got)
		assert.Equal(t, fake.entities, output.Entities)
	})

	t.Run("no entities returns empty list", func(t *testing.T) {
		_, output, err := TagText(&fakeTagger{})(ctx, req, InputTagText{Text: "nothing here"})
		require.NoError(t, err)
		assert.NotNil(t, output.Entities)
		assert.Empty(t, output.Entities)
	})

	t.Run("empty text returns error", func(t *testing.T) {
		_, _, err := TagText(&fakeTagger{})(ctx, req, InputTagText{})
		assert.ErrorContains(t, err, "text is required")
	})

	t.Run("tagger error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		_, _, err := TagText(&fakeTagger{err: boom})(ctx, req, InputTagText{Text: "x"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestNewServer(t *testing.T) {
	assert.NotNil(t, NewServer("test", nil))
	assert.NotNil(t, NewServer("test", &fakeTagger{}))
}
