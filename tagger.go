package nereval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jamesainslie/go-nereval/inference"
	"github.com/jamesainslie/go-nereval/label"
	"github.com/jamesainslie/go-nereval/span"
	"github.com/jamesainslie/go-nereval/tokenizer"
)

const (
	// minSeqLen leaves room for the two special tokens and some content.
	minSeqLen = 8

	// chunkOverlap is the number of overlapping tokens between chunks.
	// Tokens near a chunk edge see little context, so their logits are
	// averaged with the neighbouring chunk.
	chunkOverlap = 64
)

// Entity is a named entity found in text.
type Entity struct {
	Type string `json:"type"`

	// Start and End are inclusive token indices.
	Start int `json:"start"`
	End   int `json:"end"`

	// Text is the surface form, text[ByteStart:ByteEnd].
	Text      string `json:"text"`
	ByteStart int    `json:"byte_start"`
	ByteEnd   int    `json:"byte_end"`

	// Score is the mean probability of the predicted tag over the tokens.
	Score float32 `json:"score"`
}

// Tagger runs a token classification model over raw text.
// It is safe for concurrent use.
type Tagger struct {
	tokenizer *tokenizer.Tokenizer
	pool      *inference.Pool
	labels    *label.Map
	scheme    label.Scheme
	maxSeqLen int
	specials  specialTokens
	logger    *slog.Logger
}

// New creates a Tagger with the specified model files. labels lists the
// model's output classes in order.
func New(modelPath, tokenizerPath string, labels *label.Map, opts ...Option) (*Tagger, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if labels == nil || labels.Len() == 0 {
		return nil, ErrNoLabels
	}

	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, fmt.Errorf("checking model file: %w", err)
	}

	tok, err := tokenizer.New(tokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenizerFailed, err)
	}

	specials, err := resolveSpecials(cfg.specials, tok)
	if err != nil {
		_ = tok.Close()
		return nil, err
	}

	pool, err := inference.NewPool(modelPath, cfg.poolSize)
	if err != nil {
		_ = tok.Close()
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	cfg.logger.Debug("tagger ready",
		"model", pool.ModelPath(),
		"labels", labels.Len(),
		"scheme", cfg.scheme,
		"pool", pool.Size(),
	)

	return &Tagger{
		tokenizer: tok,
		pool:      pool,
		labels:    labels,
		scheme:    cfg.scheme,
		maxSeqLen: cfg.maxSeqLen,
		specials:  specials,
		logger:    cfg.logger,
	}, nil
}

// resolveSpecials returns the configured special tokens, or looks up the
// BERT or RoBERTa spelling in the vocabulary.
func resolveSpecials(configured *specialTokens, tok *tokenizer.Tokenizer) (specialTokens, error) {
	if configured != nil {
		return *configured, nil
	}
	for _, pair := range [][2]string{{"[CLS]", "[SEP]"}, {"<s>", "</s>"}} {
		cls, okCLS := tok.TokenID(pair[0])
		sep, okSEP := tok.TokenID(pair[1])
		if okCLS && okSEP {
			return specialTokens{cls: cls, sep: sep}, nil
		}
	}
	return specialTokens{}, fmt.Errorf("%w: no [CLS]/[SEP] or <s>/</s> in vocabulary, use WithSpecialTokens", ErrTokenizerFailed)
}

// Labels returns the label map the Tagger decodes with.
func (t *Tagger) Labels() *label.Map {
	return t.labels
}

// Tag finds the entities in text. Empty text yields no entities.
func (t *Tagger) Tag(ctx context.Context, text string) ([]Entity, error) {
	if text == "" {
		return nil, nil
	}

	tokens, err := t.tokenizer.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("tokenizing: %w", err)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	logits, err := t.getLogits(ctx, tokens)
	if err != nil {
		return nil, err
	}

	ids, probs, err := t.predict(logits)
	if err != nil {
		return nil, err
	}

	spans, err := span.Decode(t.tags(ids), t.scheme)
	if err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}

	t.logger.Debug("tagged text", "tokens", len(tokens), "entities", len(spans))
	return entities(spans, tokens, text, probs), nil
}

// getLogits returns one logits row per token, chunking if necessary.
func (t *Tagger) getLogits(ctx context.Context, tokens []tokenizer.TokenInfo) ([][]float32, error) {
	window := t.maxSeqLen - 2
	overlap := min(chunkOverlap, window/4)

	sums := make([][]float32, len(tokens))
	counts := make([]int, len(tokens))

	for _, c := range chunkBounds(len(tokens), window, overlap) {
		rows, err := t.inferChunk(ctx, tokens[c.start:c.end])
		if err != nil {
			return nil, err
		}
		accumulate(sums, counts, c.start, rows)
	}

	average(sums, counts)
	return sums, nil
}

// inferChunk wraps tokens in the special tokens, runs the model and drops the
// special positions from the result.
func (t *Tagger) inferChunk(ctx context.Context, tokens []tokenizer.TokenInfo) ([][]float32, error) {
	n := len(tokens) + 2
	inputIDs := make([]int64, n)
	attentionMask := make([]int64, n)

	inputIDs[0] = int64(t.specials.cls)
	for i, tok := range tokens {
		inputIDs[i+1] = int64(tok.ID)
	}
	inputIDs[n-1] = int64(t.specials.sep)
	for i := range attentionMask {
		attentionMask[i] = 1
	}

	rows, err := t.pool.Infer(ctx, inputIDs, attentionMask)
	if err != nil {
		return nil, err
	}
	if len(rows) != n {
		return nil, fmt.Errorf("%w: %d logits rows for %d inputs", ErrInvalidModel, len(rows), n)
	}
	return rows[1 : n-1], nil
}

// predict picks the best label per token and its probability.
func (t *Tagger) predict(logits [][]float32) ([]int, []float32, error) {
	ids := make([]int, len(logits))
	probs := make([]float32, len(logits))
	for i, row := range logits {
		if len(row) != t.labels.Len() {
			return nil, nil, fmt.Errorf("%w: model has %d labels, label map has %d", ErrInvalidModel, len(row), t.labels.Len())
		}
		ids[i] = inference.Argmax(row)
		probs[i] = inference.Softmax(row)[ids[i]]
	}
	return ids, probs, nil
}

// tags resolves predicted ids. Labels the scheme cannot parse, such as CRF
// start and end states, are read as O.
func (t *Tagger) tags(ids []int) []string {
	tags := make([]string, len(ids))
	for i, id := range ids {
		tag, err := t.labels.Lookup(id)
		if err != nil {
			tag = label.Outside
		} else if _, err := label.Parse(tag, t.scheme); err != nil {
			tag = label.Outside
		}
		tags[i] = tag
	}
	return tags
}

// Close releases all resources.
func (t *Tagger) Close() error {
	var errs []error

	if t.pool != nil {
		if err := t.pool.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if t.tokenizer != nil {
		if err := t.tokenizer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

type chunk struct {
	start, end int
}

// chunkBounds splits n tokens into windows of at most size tokens, each
// starting size-overlap after the previous one. The last window ends at n.
func chunkBounds(n, size, overlap int) []chunk {
	if n <= 0 {
		return nil
	}
	stride := max(size-overlap, 1)

	var chunks []chunk
	for start := 0; ; start += stride {
		end := min(start+size, n)
		chunks = append(chunks, chunk{start: start, end: end})
		if end >= n {
			return chunks
		}
	}
}

// accumulate adds rows into sums starting at offset.
func accumulate(sums [][]float32, counts []int, offset int, rows [][]float32) {
	for i, row := range rows {
		pos := offset + i
		if sums[pos] == nil {
			sums[pos] = make([]float32, len(row))
		}
		for j, v := range row {
			sums[pos][j] += v
		}
		counts[pos]++
	}
}

// average divides every row by the number of chunks that produced it.
func average(sums [][]float32, counts []int) {
	for i, row := range sums {
		if counts[i] <= 1 {
			continue
		}
		for j := range row {
			row[j] /= float32(counts[i])
		}
	}
}

// entities attaches byte offsets, surface text and scores to spans.
func entities(spans []span.Span, tokens []tokenizer.TokenInfo, text string, probs []float32) []Entity {
	out := make([]Entity, 0, len(spans))
	for _, s := range spans {
		e := Entity{
			Type:      s.Type,
			Start:     s.Start,
			End:       s.End,
			ByteStart: tokens[s.Start].Start,
			ByteEnd:   tokens[s.End].End,
		}
		if e.ByteStart <= e.ByteEnd && e.ByteEnd <= len(text) {
			e.Text = text[e.ByteStart:e.ByteEnd]
		}

		var sum float32
		for i := s.Start; i <= s.End; i++ {
			sum += probs[i]
		}
		e.Score = sum / float32(s.Len())

		out = append(out, e)
	}
	return out
}
