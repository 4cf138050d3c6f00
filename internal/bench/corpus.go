// Package bench provides the corpus evaluation harness for NER predictions.
package bench

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jamesainslie/go-nereval/score"
	"github.com/jamesainslie/go-nereval/span"
)

// Corpus formats accepted by LoadCorpus.
const (
	FormatJSONL  = "jsonl"
	FormatCoNLL  = "conll"
	FormatRecord = "record"
)

// maxLineSize bounds a single JSON line or CoNLL row.
const maxLineSize = 16 << 20

// Sentence is one evaluation example. Exactly one representation is used:
//   - GoldTags/PredTags: tag strings, already trimmed to the tokens of interest
//   - Gold/Pred: tag ids; when Length > 0 they still carry the leading and
//     trailing sentinel positions and are trimmed with span.Trim
//   - GoldSpans/PredSpans: subjects from a span prediction head
type Sentence struct {
	ID        string          `json:"id,omitempty"`
	Gold      []int           `json:"gold,omitempty"`
	Pred      []int           `json:"pred,omitempty"`
	Length    int             `json:"length,omitempty"`
	GoldTags  []string        `json:"gold_tags,omitempty"`
	PredTags  []string        `json:"pred_tags,omitempty"`
	GoldSpans []score.Subject `json:"gold_spans,omitempty"`
	PredSpans []score.Subject `json:"pred_spans,omitempty"`
	Tokens    []string        `json:"tokens,omitempty"`
}

// Annotation forms a Sentence can carry.
const (
	FormEmpty Form = iota
	FormTags
	FormIDs
	FormSpans
)

// Form identifies which representation a Sentence uses.
type Form int

func (f Form) String() string {
	switch f {
	case FormEmpty:
		return "empty"
	case FormTags:
		return "tags"
	case FormIDs:
		return "ids"
	case FormSpans:
		return "spans"
	}
	return "Form(" + strconv.Itoa(int(f)) + ")"
}

// Sequence reports whether the form is scored by decoding tag sequences.
func (f Form) Sequence() bool {
	return f == FormTags || f == FormIDs
}

var (
	// ErrMixedForm indicates a sentence carrying more than one representation.
	ErrMixedForm = errors.New("bench: sentence mixes annotation forms")

	// ErrNoAnnotations indicates a sentence with a length but nothing to score.
	ErrNoAnnotations = errors.New("bench: sentence has a length but no annotations")

	// ErrWrongForm indicates a sentence the chosen scorer cannot read.
	ErrWrongForm = errors.New("bench: sentence form does not match the scorer")

	// ErrMixedCorpus indicates a corpus with both sequence and span sentences.
	ErrMixedCorpus = errors.New("bench: corpus mixes sequence and span sentences")
)

// HasTags reports whether the sentence carries tag strings.
func (s Sentence) HasTags() bool {
	return s.GoldTags != nil || s.PredTags != nil
}

// HasIDs reports whether the sentence carries tag ids.
func (s Sentence) HasIDs() bool {
	return s.Gold != nil || s.Pred != nil
}

// HasSpans reports whether the sentence carries span-head subjects.
func (s Sentence) HasSpans() bool {
	return s.GoldSpans != nil || s.PredSpans != nil
}

// Form returns the sentence's representation. A sentence with none is
// FormEmpty unless it declares a Length, which is an error.
func (s Sentence) Form() (Form, error) {
	var forms []Form
	if s.HasTags() {
		forms = append(forms, FormTags)
	}
	if s.HasIDs() {
		forms = append(forms, FormIDs)
	}
	if s.HasSpans() {
		forms = append(forms, FormSpans)
	}

	switch {
	case len(forms) > 1:
		return FormEmpty, fmt.Errorf("%w: %v", ErrMixedForm, forms)
	case len(forms) == 1:
		return forms[0], nil
	case s.Length > 0:
		return FormEmpty, fmt.Errorf("%w: length %d", ErrNoAnnotations, s.Length)
	}
	return FormEmpty, nil
}

// Apply records the sentence in acc. Span-form sentences are rejected.
func (s Sentence) Apply(acc *score.SeqEntityScore) error {
	form, err := s.Form()
	if err != nil {
		return err
	}

	switch form {
	case FormTags:
		return acc.UpdateTags(s.GoldTags, s.PredTags)
	case FormIDs:
		gold, pred := s.Gold, s.Pred
		if s.Length > 0 {
			gold = span.Trim(gold, s.Length)
			pred = span.Trim(pred, s.Length)
		}
		return acc.UpdateIDs(gold, pred)
	case FormEmpty:
		return nil
	}
	return fmt.Errorf("%w: %s sentence in a sequence evaluation", ErrWrongForm, form)
}

// ApplySpans records the sentence in acc. Sequence-form sentences are
// rejected.
func (s Sentence) ApplySpans(acc *score.SpanEntityScore) error {
	form, err := s.Form()
	if err != nil {
		return err
	}

	switch form {
	case FormSpans:
		return acc.Update(s.GoldSpans, s.PredSpans)
	case FormEmpty:
		return nil
	}
	return fmt.Errorf("%w: %s sentence in a span evaluation", ErrWrongForm, form)
}

// CorpusForm returns FormSpans when every non-empty sentence carries spans,
// the form of the first sequence sentence when none does, and FormEmpty for
// a corpus with nothing to score. Tag and id sentences may be mixed since
// both are decoded; mixing them with span sentences is an error.
func CorpusForm(sentences []Sentence) (Form, error) {
	corpus := FormEmpty
	first := 0
	for i, s := range sentences {
		form, err := s.Form()
		if err != nil {
			return FormEmpty, fmt.Errorf("sentence %s: %w", s.name(i), err)
		}
		switch {
		case form == FormEmpty:
		case corpus == FormEmpty:
			corpus, first = form, i
		case form.Sequence() != corpus.Sequence():
			return FormEmpty, fmt.Errorf("%w: sentence %s is %s, sentence %s is %s",
				ErrMixedCorpus, sentences[first].name(first), corpus, s.name(i), form)
		}
	}
	return corpus, nil
}

func (s Sentence) name(index int) string {
	if s.ID != "" {
		return s.ID
	}
	return "#" + strconv.Itoa(index)
}

// LoadJSONL reads one Sentence per non-blank line. Unknown keys are an
// error, so a misspelled field does not silently leave a sentence empty.
func LoadJSONL(r io.Reader) ([]Sentence, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var sentences []Sentence
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var s Sentence
		dec := json.NewDecoder(strings.NewReader(line))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		sentences = append(sentences, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan jsonl: %w", err)
	}
	return sentences, nil
}

// LoadCoNLL reads whitespace separated rows of "token ... gold pred". The
// last two columns are the gold and predicted tags. Blank lines separate
// sentences and -DOCSTART- rows are ignored.
func LoadCoNLL(r io.Reader) ([]Sentence, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		sentences []Sentence
		current   Sentence
		lineNo    int
	)
	flush := func() {
		if len(current.Tokens) > 0 {
			current.ID = strconv.Itoa(len(sentences))
			sentences = append(sentences, current)
		}
		current = Sentence{}
	}

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			flush()
			continue
		}
		if strings.HasPrefix(fields[0], "-DOCSTART-") {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: want at least 3 columns, got %d", lineNo, len(fields))
		}
		n := len(fields)
		current.Tokens = append(current.Tokens, fields[0])
		current.GoldTags = append(current.GoldTags, fields[n-2])
		current.PredTags = append(current.PredTags, fields[n-1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan conll: %w", err)
	}
	flush()

	return sentences, nil
}

// DetectFormat guesses the corpus format from a file extension.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".json", ".ndjson":
		return FormatJSONL, nil
	case ".conll", ".txt", ".bio", ".bios":
		return FormatCoNLL, nil
	case ".rec", ".pb", ".bin":
		return FormatRecord, nil
	}
	return "", fmt.Errorf("cannot detect corpus format of %s", path)
}

// LoadCorpus reads a corpus file. An empty format is detected from the
// file extension.
func LoadCorpus(path, format string) ([]Sentence, error) {
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sentences []Sentence
	switch format {
	case FormatJSONL:
		sentences, err = LoadJSONL(f)
	case FormatCoNLL:
		sentences, err = LoadCoNLL(f)
	case FormatRecord:
		sentences, err = ReadRecords(f)
	default:
		return nil, fmt.Errorf("unknown corpus format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if len(sentences) == 0 {
		return nil, errors.New("corpus is empty")
	}
	return sentences, nil
}
