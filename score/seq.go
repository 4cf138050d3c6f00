package score

import (
	"fmt"

	"github.com/jamesainslie/go-nereval/label"
	"github.com/jamesainslie/go-nereval/span"
)

// SeqEntityScore scores spans decoded from per-token tag sequences.
//
// A SeqEntityScore is not safe for concurrent use. Parallel evaluations keep
// one instance per goroutine and combine them with Merge.
type SeqEntityScore struct {
	labels *label.Map
	scheme label.Scheme
	acc    accumulator[string]
}

// NewSeqEntityScore returns an empty accumulator. labels is only needed by
// UpdateIDs and may be nil otherwise.
func NewSeqEntityScore(labels *label.Map, scheme label.Scheme) *SeqEntityScore {
	return &SeqEntityScore{
		labels: labels,
		scheme: scheme,
		acc: accumulator[string]{
			typeKey: func(t string) string { return t },
		},
	}
}

// Update records one sentence's gold and predicted spans.
func (s *SeqEntityScore) Update(gold, pred []span.Span) {
	s.acc.update(fromSpans(gold), fromSpans(pred))
}

// UpdateTags decodes one sentence's gold and predicted tags and records the
// spans. Nothing is recorded if either sequence fails to decode.
func (s *SeqEntityScore) UpdateTags(gold, pred []string) error {
	goldSpans, err := span.Decode(gold, s.scheme)
	if err != nil {
		return fmt.Errorf("decode gold: %w", err)
	}
	predSpans, err := span.Decode(pred, s.scheme)
	if err != nil {
		return fmt.Errorf("decode prediction: %w", err)
	}
	s.Update(goldSpans, predSpans)
	return nil
}

// UpdateIDs is UpdateTags for tag id sequences resolved through the label map.
func (s *SeqEntityScore) UpdateIDs(gold, pred []int) error {
	if s.labels == nil {
		return fmt.Errorf("%w: no label map configured", label.ErrUnknownID)
	}
	goldSpans, err := span.DecodeIDs(gold, s.labels, s.scheme)
	if err != nil {
		return fmt.Errorf("decode gold: %w", err)
	}
	predSpans, err := span.DecodeIDs(pred, s.labels, s.scheme)
	if err != nil {
		return fmt.Errorf("decode prediction: %w", err)
	}
	s.Update(goldSpans, predSpans)
	return nil
}

// Result computes the report over everything recorded so far. It does not
// modify the accumulator.
func (s *SeqEntityScore) Result() Report {
	return s.acc.result()
}

// TypeMetrics returns the rounded metrics of a single entity type, whether
// or not it occurs in gold annotations.
func (s *SeqEntityScore) TypeMetrics(typ string) Metrics {
	return s.acc.metricsFor(typ)
}

// Reset discards all recorded spans.
func (s *SeqEntityScore) Reset() {
	s.acc.reset()
}

// Merge appends everything recorded by other.
func (s *SeqEntityScore) Merge(other *SeqEntityScore) {
	s.acc.merge(&other.acc)
}

// Counts returns the number of gold, predicted and correctly predicted spans.
func (s *SeqEntityScore) Counts() (origin, found, right int) {
	return len(s.acc.origins), len(s.acc.founds), len(s.acc.rights)
}

func fromSpans(spans []span.Span) []entity[string] {
	out := make([]entity[string], len(spans))
	for i, sp := range spans {
		out[i] = entity[string]{Type: sp.Type, Start: sp.Start, End: sp.End}
	}
	return out
}
