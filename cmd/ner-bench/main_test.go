package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jamesainslie/go-nereval/internal/bench"
	"github.com/jamesainslie/go-nereval/label"
	"github.com/jamesainslie/go-nereval/score"
)

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, score.Report{
		Overall:  score.Metrics{Precision: 0.5, Recall: 1, F1: 2.0 / 3},
		Entities: map[string]score.Metrics{"name": {Precision: 1, Recall: 1, F1: 1}, "city": {}},
		Origin:   2,
		Found:    4,
		Right:    2,
	})

	out := buf.String()
	if !strings.Contains(out, "Precision: 0.5000  Recall: 1.0000  F1: 0.6667") {
		t.Errorf("missing overall line in:\n%s", out)
	}
	if !strings.Contains(out, "(Gold: 2, Predicted: 4, Correct: 2)") {
		t.Errorf("missing counts in:\n%s", out)
	}
	if strings.Index(out, "city") > strings.Index(out, "name") {
		t.Errorf("types should be sorted:\n%s", out)
	}
}

func TestPrintReport_NoTypes(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, score.Report{})
	if strings.Contains(buf.String(), "Type") {
		t.Errorf("empty report should not print a type table:\n%s", buf.String())
	}
}

func TestEvaluate_DispatchesSpans(t *testing.T) {
	labelCfg := label.Config{Scheme: "bios", Labels: []string{"O", "S-name"}, Types: []string{"name"}}
	cfg := bench.DefaultConfig()

	spans := []bench.Sentence{{
		GoldSpans: []score.Subject{{TypeID: 0, Start: 0, End: 0}},
		PredSpans: []score.Subject{{TypeID: 0, Start: 0, End: 0}},
	}}
	report, err := evaluate(context.Background(), spans, labelCfg, cfg)
	if err != nil {
		t.Fatalf("evaluate() error = %v", err)
	}
	if report.Right != 1 {
		t.Errorf("span corpus Right = %d, want 1", report.Right)
	}

	tags := []bench.Sentence{{GoldTags: []string{"S-name"}, PredTags: []string{"O"}}}
	report, err = evaluate(context.Background(), tags, labelCfg, cfg)
	if err != nil {
		t.Fatalf("evaluate() error = %v", err)
	}
	if report.Origin != 1 || report.Found != 0 {
		t.Errorf("tag corpus counts = (%d, %d), want (1, 0)", report.Origin, report.Found)
	}
}

func TestEvaluate_MixedCorpus(t *testing.T) {
	labelCfg := label.Config{Scheme: "bios", Labels: []string{"O", "S-name"}, Types: []string{"name"}}

	// The span sentence comes second so the first sentence alone looks like a tag corpus.
	mixed := []bench.Sentence{
		{GoldTags: []string{"S-name"}, PredTags: []string{"S-name"}},
		{GoldSpans: []score.Subject{{TypeID: 0}}, PredSpans: []score.Subject{{TypeID: 0}}},
	}
	_, err := evaluate(context.Background(), mixed, labelCfg, bench.DefaultConfig())
	if !errors.Is(err, bench.ErrMixedCorpus) {
		t.Errorf("evaluate() error = %v, want ErrMixedCorpus", err)
	}
}
