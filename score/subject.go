package score

import (
	"fmt"

	"github.com/jamesainslie/go-nereval/label"
)

// Subject is an entity emitted directly by a span prediction head, with its
// type given as an id into the type map.
type Subject struct {
	TypeID int `json:"type_id"`
	Start  int `json:"start"`
	End    int `json:"end"`
}

// SpanEntityScore scores entities produced without an intermediate tag
// sequence. Types are resolved through the type map only when grouping.
type SpanEntityScore struct {
	types *label.Map
	acc   accumulator[int]
}

// NewSpanEntityScore returns an empty accumulator over the given type map.
// With a nil map every Update fails with label.ErrUnknownID.
func NewSpanEntityScore(types *label.Map) *SpanEntityScore {
	return &SpanEntityScore{
		types: types,
		acc: accumulator[int]{
			// Update guarantees every recorded id resolves.
			typeKey: func(id int) string {
				name, _ := types.Lookup(id)
				return name
			},
		},
	}
}

// Update records one sentence's gold and predicted subjects. Every type id is
// checked against the type map first; nothing is recorded on error.
func (s *SpanEntityScore) Update(gold, pred []Subject) error {
	if s.types == nil {
		return fmt.Errorf("%w: no type map configured", label.ErrUnknownID)
	}
	goldEntities, err := s.fromSubjects(gold)
	if err != nil {
		return fmt.Errorf("gold: %w", err)
	}
	predEntities, err := s.fromSubjects(pred)
	if err != nil {
		return fmt.Errorf("prediction: %w", err)
	}
	s.acc.update(goldEntities, predEntities)
	return nil
}

// Result computes the report over everything recorded so far.
func (s *SpanEntityScore) Result() Report {
	return s.acc.result()
}

// TypeMetrics returns the rounded metrics of a single entity type, whether
// or not it occurs in gold annotations.
func (s *SpanEntityScore) TypeMetrics(typ string) Metrics {
	return s.acc.metricsFor(typ)
}

// Reset discards all recorded subjects.
func (s *SpanEntityScore) Reset() {
	s.acc.reset()
}

// Merge appends everything recorded by other. Both must share a type map.
func (s *SpanEntityScore) Merge(other *SpanEntityScore) {
	s.acc.merge(&other.acc)
}

// Counts returns the number of gold, predicted and correctly predicted subjects.
func (s *SpanEntityScore) Counts() (origin, found, right int) {
	return len(s.acc.origins), len(s.acc.founds), len(s.acc.rights)
}

func (s *SpanEntityScore) fromSubjects(subjects []Subject) ([]entity[int], error) {
	out := make([]entity[int], len(subjects))
	for i, sub := range subjects {
		if _, err := s.types.Lookup(sub.TypeID); err != nil {
			return nil, err
		}
		out[i] = entity[int]{Type: sub.TypeID, Start: sub.Start, End: sub.End}
	}
	return out, nil
}
