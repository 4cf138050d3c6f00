// Package score accumulates gold and predicted entity spans across sentences
// and reports micro-averaged and per-type precision, recall and F1.
//
// Matching is exact: a prediction is right only if its type, start and end
// all equal those of a gold entity in the same sentence.
package score

import (
	"log/slog"
	"math"
	"sort"
)

// Compute returns recall, precision and F1 for the given counts. Each ratio
// is 0 when its denominator is 0.
func Compute(origin, found, right int) (recall, precision, f1 float64) {
	if origin != 0 {
		recall = float64(right) / float64(origin)
	}
	if found != 0 {
		precision = float64(right) / float64(found)
	}
	if precision+recall != 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return recall, precision, f1
}

// Metrics holds one precision/recall/F1 triple. Precision is reported under
// the "accuracy" key for compatibility with existing leaderboards.
type Metrics struct {
	Precision float64 `json:"accuracy"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// LogValue implements slog.LogValuer.
func (m Metrics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("accuracy", m.Precision),
		slog.Float64("recall", m.Recall),
		slog.Float64("f1", m.F1),
	)
}

// Report is the result of an accumulation. Overall is unrounded; Entities
// values are rounded to 4 decimal places. The Entities key set is the set of
// types observed in gold annotations.
type Report struct {
	Overall  Metrics            `json:"overall"`
	Entities map[string]Metrics `json:"entities"`
	Origin   int                `json:"origin"`
	Found    int                `json:"found"`
	Right    int                `json:"right"`
}

// Types returns the per-type keys in sorted order.
func (r Report) Types() []string {
	types := make([]string, 0, len(r.Entities))
	for t := range r.Entities {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Log writes the overall metrics followed by one record per entity type.
func (r Report) Log(logger *slog.Logger) {
	logger.Info("eval results",
		"metrics", r.Overall,
		"origin", r.Origin,
		"found", r.Found,
		"right", r.Right,
	)
	for _, t := range r.Types() {
		logger.Info("entity results", "type", t, "metrics", r.Entities[t])
	}
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

// entity is a span keyed by T: a type name for sequence heads or a type id
// for span heads.
type entity[T comparable] struct {
	Type  T
	Start int
	End   int
}

// accumulator is the aggregation core shared by SeqEntityScore and
// SpanEntityScore. Only the grouping key resolution differs between them.
type accumulator[T comparable] struct {
	origins []entity[T]
	founds  []entity[T]
	rights  []entity[T]
	typeKey func(T) string
}

func (a *accumulator[T]) update(gold, pred []entity[T]) {
	a.origins = append(a.origins, gold...)
	a.founds = append(a.founds, pred...)
	for _, p := range pred {
		for _, g := range gold {
			if p == g {
				a.rights = append(a.rights, p)
				break
			}
		}
	}
}

func (a *accumulator[T]) reset() {
	a.origins = nil
	a.founds = nil
	a.rights = nil
}

func (a *accumulator[T]) merge(other *accumulator[T]) {
	a.origins = append(a.origins, other.origins...)
	a.founds = append(a.founds, other.founds...)
	a.rights = append(a.rights, other.rights...)
}

func (a *accumulator[T]) count(entities []entity[T]) map[string]int {
	counts := make(map[string]int)
	for _, e := range entities {
		counts[a.typeKey(e.Type)]++
	}
	return counts
}

// metricsFor computes rounded metrics for one type, including types that
// never occur in gold annotations and so are absent from Report.Entities.
func (a *accumulator[T]) metricsFor(typ string) Metrics {
	recall, precision, f1 := Compute(a.count(a.origins)[typ], a.count(a.founds)[typ], a.count(a.rights)[typ])
	return Metrics{Precision: round4(precision), Recall: round4(recall), F1: round4(f1)}
}

func (a *accumulator[T]) result() Report {
	originCounts := a.count(a.origins)
	foundCounts := a.count(a.founds)
	rightCounts := a.count(a.rights)

	entities := make(map[string]Metrics, len(originCounts))
	for typ, origin := range originCounts {
		recall, precision, f1 := Compute(origin, foundCounts[typ], rightCounts[typ])
		entities[typ] = Metrics{
			Precision: round4(precision),
			Recall:    round4(recall),
			F1:        round4(f1),
		}
	}

	origin, found, right := len(a.origins), len(a.founds), len(a.rights)
	recall, precision, f1 := Compute(origin, found, right)
	return Report{
		Overall:  Metrics{Precision: precision, Recall: recall, F1: f1},
		Entities: entities,
		Origin:   origin,
		Found:    found,
		Right:    right,
	}
}
