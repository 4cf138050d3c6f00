package bench

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/jamesainslie/go-nereval/label"
	"github.com/jamesainslie/go-nereval/score"
)

func TestLoadJSONL(t *testing.T) {
	input := `{"id": "s1", "gold": [30, 1, 2, 0, 31, 0], "pred": [30, 1, 2, 0, 31, 0], "length": 5}

{"gold_tags": ["B-name", "I-name"], "pred_tags": ["B-name", "O"]}
{"gold_spans": [{"type_id": 0, "start": 1, "end": 2}], "pred_spans": []}
`
	got, err := LoadJSONL(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadJSONL() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d sentences, want 3", len(got))
	}

	if got[0].ID != "s1" || got[0].Length != 5 || len(got[0].Gold) != 6 {
		t.Errorf("sentence[0] = %+v", got[0])
	}
	if !got[1].HasTags() || got[1].HasSpans() {
		t.Errorf("sentence[1] HasTags = %v, HasSpans = %v", got[1].HasTags(), got[1].HasSpans())
	}
	if !got[2].HasSpans() {
		t.Errorf("sentence[2] should carry spans")
	}
	want := []score.Subject{{TypeID: 0, Start: 1, End: 2}}
	if !reflect.DeepEqual(got[2].GoldSpans, want) {
		t.Errorf("sentence[2].GoldSpans = %+v, want %+v", got[2].GoldSpans, want)
	}
}

func TestLoadJSONL_BadLine(t *testing.T) {
	_, err := LoadJSONL(strings.NewReader("{\"gold\": [1]}\n{not json}\n"))
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q should name the line", err)
	}
}

func TestLoadJSONL_UnknownKey(t *testing.T) {
	_, err := LoadJSONL(strings.NewReader(`{"gold_tag": ["S-name"], "pred_tags": ["S-name"]}` + "\n"))
	if err == nil || !strings.Contains(err.Error(), "gold_tag") {
		t.Errorf("LoadJSONL() error = %v, want unknown field gold_tag", err)
	}
}

func TestCorpusForm(t *testing.T) {
	tags := Sentence{GoldTags: []string{"O"}, PredTags: []string{"O"}}
	ids := Sentence{Gold: []int{0}, Pred: []int{0}}
	spans := Sentence{GoldSpans: []score.Subject{}, PredSpans: []score.Subject{}}

	tests := []struct {
		name    string
		corpus  []Sentence
		want    Form
		wantErr error
	}{
		{"empty", nil, FormEmpty, nil},
		{"only empty sentences", []Sentence{{}, {ID: "x"}}, FormEmpty, nil},
		{"tags and ids", []Sentence{{}, tags, ids}, FormTags, nil},
		{"spans", []Sentence{{}, spans, spans}, FormSpans, nil},
		{"spans after tags", []Sentence{tags, tags, spans}, FormEmpty, ErrMixedCorpus},
		{"tags after spans", []Sentence{spans, ids}, FormEmpty, ErrMixedCorpus},
		{"length without annotations", []Sentence{tags, {Length: 3}}, FormEmpty, ErrNoAnnotations},
		{"sentence with two forms", []Sentence{{GoldTags: []string{"O"}, GoldSpans: []score.Subject{}}}, FormEmpty, ErrMixedForm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CorpusForm(tt.corpus)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CorpusForm() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("CorpusForm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadCoNLL(t *testing.T) {
	input := `-DOCSTART- O O

John NNP B-name B-name
Smith NNP I-name O
lives VBZ O O

Paris NNP S-city S-city
`
	got, err := LoadCoNLL(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadCoNLL() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d sentences, want 2", len(got))
	}

	want := Sentence{
		ID:       "0",
		Tokens:   []string{"John", "Smith", "lives"},
		GoldTags: []string{"B-name", "I-name", "O"},
		PredTags: []string{"B-name", "O", "O"},
	}
	if !reflect.DeepEqual(got[0], want) {
		t.Errorf("sentence[0] = %+v, want %+v", got[0], want)
	}
	if got[1].ID != "1" || got[1].GoldTags[0] != "S-city" {
		t.Errorf("sentence[1] = %+v", got[1])
	}
}

func TestLoadCoNLL_TooFewColumns(t *testing.T) {
	_, err := LoadCoNLL(strings.NewReader("John B-name\n"))
	if err == nil {
		t.Fatal("expected error for two-column row")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "dev.jsonl", want: FormatJSONL},
		{path: "dev.conll", want: FormatCoNLL},
		{path: "dev.TXT", want: FormatCoNLL},
		{path: "dev.rec", want: FormatRecord},
		{path: "dev.csv", wantErr: true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("DetectFormat(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLoadCorpus(t *testing.T) {
	dir := t.TempDir()

	conll := filepath.Join(dir, "dev.conll")
	if err := os.WriteFile(conll, []byte("a X B-x B-x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadCorpus(conll, "")
	if err != nil {
		t.Fatalf("LoadCorpus() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d sentences, want 1", len(got))
	}

	empty := filepath.Join(dir, "empty.jsonl")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCorpus(empty, ""); err == nil {
		t.Error("expected error for empty corpus")
	}

	if _, err := LoadCorpus(conll, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := LoadCorpus(filepath.Join(dir, "missing.jsonl"), ""); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSampleCorpus(t *testing.T) {
	sentences, err := LoadCorpus("../../testdata/sample.conll", "")
	if err != nil {
		t.Fatalf("LoadCorpus() error = %v", err)
	}
	if len(sentences) != 3 {
		t.Fatalf("got %d sentences, want 3", len(sentences))
	}

	cfg, err := label.LoadConfig("../../testdata/labels.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	labels, err := cfg.Map()
	if err != nil {
		t.Fatal(err)
	}

	ecfg := DefaultConfig()
	ecfg.Scheme = cfg.ParsedScheme()
	report, err := Evaluate(context.Background(), sentences, labels, ecfg)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	// British is predicted as LOC instead of MISC.
	if report.Origin != 5 || report.Found != 5 || report.Right != 4 {
		t.Errorf("counts = (%d, %d, %d), want (5, 5, 4)", report.Origin, report.Found, report.Right)
	}
	if report.Entities["MISC"].Recall != 0.5 {
		t.Errorf("MISC recall = %v, want 0.5", report.Entities["MISC"].Recall)
	}
	if _, ok := report.Entities["LOC"]; !ok {
		t.Error("LOC should be reported")
	}
}
