package bench

import (
	"context"
	"fmt"
	"sort"

	"github.com/jamesainslie/go-nereval/label"
	"github.com/jamesainslie/go-nereval/score"
)

// Run is one named set of predictions over a corpus, for example the
// output of one model checkpoint.
type Run struct {
	Name      string
	Sentences []Sentence
}

// CompareResult holds the report of one run.
type CompareResult struct {
	Name   string       `json:"name"`
	Report score.Report `json:"report"`
}

// Compare evaluates every run with EvaluateCorpus and returns results sorted
// by overall F1 descending. Runs with equal F1 keep their input order. types
// is only needed for span-form runs.
func Compare(ctx context.Context, runs []Run, labels, types *label.Map, cfg Config) ([]CompareResult, error) {
	results := make([]CompareResult, 0, len(runs))

	for _, run := range runs {
		report, err := EvaluateCorpus(ctx, run.Sentences, labels, types, cfg)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", run.Name, err)
		}
		results = append(results, CompareResult{Name: run.Name, Report: report})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Report.Overall.F1 > results[j].Report.Overall.F1
	})

	return results, nil
}
