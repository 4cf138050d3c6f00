package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/go-nereval/label"
	"github.com/jamesainslie/go-nereval/score"
)

// Config holds evaluation parameters.
type Config struct {
	Scheme  label.Scheme
	Workers int

	// Progress, if set, is called once per sentence with the number of
	// sentences processed so far. Calls are serialized and done increases by
	// one each time, even when Workers > 1.
	Progress func(done int)

	Logger *slog.Logger
}

// DefaultConfig returns default evaluation configuration.
func DefaultConfig() Config {
	return Config{
		Scheme:  label.BIOS,
		Workers: runtime.NumCPU(),
		Logger:  slog.Default(),
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Evaluate decodes and scores every sentence against the label map. The
// corpus is split across cfg.Workers goroutines, each with its own
// accumulator; the accumulators are merged before computing the report.
// The first decode error aborts the run, as does a span-form sentence.
func Evaluate(ctx context.Context, sentences []Sentence, labels *label.Map, cfg Config) (score.Report, error) {
	shards, err := runShards(ctx, sentences, cfg,
		func() *score.SeqEntityScore { return score.NewSeqEntityScore(labels, cfg.Scheme) },
		func(acc *score.SeqEntityScore, s Sentence) error { return s.Apply(acc) },
	)
	if err != nil {
		return score.Report{}, err
	}

	total := score.NewSeqEntityScore(labels, cfg.Scheme)
	for _, shard := range shards {
		total.Merge(shard)
	}
	report := total.Result()
	cfg.logger().Debug("evaluated corpus",
		"sentences", len(sentences),
		"workers", len(shards),
		"origin", report.Origin,
		"found", report.Found,
		"right", report.Right,
	)
	return report, nil
}

// EvaluateSpans scores sentences carrying span-head subjects, resolving type
// ids through types. Sequence-form sentences abort the run with ErrWrongForm.
func EvaluateSpans(ctx context.Context, sentences []Sentence, types *label.Map, cfg Config) (score.Report, error) {
	shards, err := runShards(ctx, sentences, cfg,
		func() *score.SpanEntityScore { return score.NewSpanEntityScore(types) },
		func(acc *score.SpanEntityScore, s Sentence) error { return s.ApplySpans(acc) },
	)
	if err != nil {
		return score.Report{}, err
	}

	total := score.NewSpanEntityScore(types)
	for _, shard := range shards {
		total.Merge(shard)
	}
	return total.Result(), nil
}

// ErrNoTypes is returned when a span-form corpus is evaluated without an
// entity type map.
var ErrNoTypes = errors.New("bench: span corpus needs an entity type map")

// EvaluateCorpus picks the scorer from the corpus form: sequence sentences
// are decoded through labels, span sentences are resolved through types.
// A corpus mixing the two is rejected with ErrMixedCorpus.
func EvaluateCorpus(ctx context.Context, sentences []Sentence, labels, types *label.Map, cfg Config) (score.Report, error) {
	form, err := CorpusForm(sentences)
	if err != nil {
		return score.Report{}, err
	}
	if form != FormSpans {
		return Evaluate(ctx, sentences, labels, cfg)
	}
	if types == nil || types.Len() == 0 {
		return score.Report{}, ErrNoTypes
	}
	return EvaluateSpans(ctx, sentences, types, cfg)
}

// runShards applies every sentence to one of cfg.Workers accumulators.
// Sentence i goes to shard i mod workers.
func runShards[A any](ctx context.Context, sentences []Sentence, cfg Config, newAcc func() A, apply func(A, Sentence) error) ([]A, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(sentences) {
		workers = max(len(sentences), 1)
	}

	shards := make([]A, workers)

	var (
		mu   sync.Mutex
		done int
	)
	progress := func() {
		if cfg.Progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		cfg.Progress(done)
	}

	g, ctx := errgroup.WithContext(ctx)
	for w := range shards {
		acc := newAcc()
		shards[w] = acc
		g.Go(func() error {
			for i := w; i < len(sentences); i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := apply(acc, sentences[i]); err != nil {
					return fmt.Errorf("sentence %s: %w", sentences[i].name(i), err)
				}
				progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return shards, nil
}
