//go:build ignore

// Convert CLUENER2020 JSON lines into benchmark corpora.
// Each character is a token and entities are tagged with BIOS. Writes
// <split>.jsonl and <split>.rec with gold tags only, plus labels.yaml
// listing every label seen.
// Usage: go run ./scripts/convert-cluener.go [dir]
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/jamesainslie/go-nereval/internal/bench"
	"github.com/jamesainslie/go-nereval/label"
	"github.com/jamesainslie/go-nereval/span"
)

// example is one CLUENER line: label maps type -> surface -> [start, end]
// character ranges, both inclusive.
type example struct {
	Text  string                         `json:"text"`
	Label map[string]map[string][][2]int `json:"label"`
}

func main() {
	dir := "testdata/cluener"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	types := map[string]bool{}
	for _, split := range []string{"train", "dev"} {
		inFile := filepath.Join(dir, split+".json")

		fmt.Printf("Processing %s...\n", split)
		sentences, err := convert(inFile, types)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inFile, err)
			continue
		}

		if err := writeJSONL(filepath.Join(dir, split+".jsonl"), sentences); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s jsonl: %v\n", split, err)
			continue
		}
		if err := writeRecords(filepath.Join(dir, split+".rec"), sentences); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s records: %v\n", split, err)
			continue
		}

		fmt.Printf("  -> %d sentences\n", len(sentences))
	}

	if err := writeLabels(filepath.Join(dir, "labels.yaml"), types); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing labels: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nDone! Corpus files created in %s/\n", dir)
}

func convert(path string, types map[string]bool) ([]bench.Sentence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	var sentences []bench.Sentence
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var ex example
		if err := json.Unmarshal(scanner.Bytes(), &ex); err != nil {
			return nil, fmt.Errorf("line %d: %w", len(sentences)+1, err)
		}

		tokens := make([]string, 0, len(ex.Text))
		for _, r := range ex.Text {
			tokens = append(tokens, string(r))
		}

		var spans []span.Span
		for typ, mentions := range ex.Label {
			types[typ] = true
			for _, ranges := range mentions {
				for _, r := range ranges {
					spans = append(spans, span.Span{Type: typ, Start: r[0], End: r[1]})
				}
			}
		}
		sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

		sentences = append(sentences, bench.Sentence{
			ID:       fmt.Sprintf("%s-%d", filepath.Base(path), len(sentences)),
			Tokens:   tokens,
			GoldTags: span.Encode(spans, len(tokens), label.BIOS),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning file: %w", err)
	}
	return sentences, nil
}

func writeJSONL(path string, sentences []bench.Sentence) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, s := range sentences {
		if err := enc.Encode(s); err != nil {
			return err
		}
	}
	return nil
}

func writeRecords(path string, sentences []bench.Sentence) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bench.WriteRecords(file, sentences); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeLabels(path string, types map[string]bool) error {
	names := make([]string, 0, len(types))
	for t := range types {
		names = append(names, t)
	}
	sort.Strings(names)

	cfg := label.Config{Scheme: label.BIOS.String(), Labels: []string{label.Outside}, Types: names}
	for _, t := range names {
		for _, m := range []label.Marker{label.MarkerBegin, label.MarkerInside, label.MarkerSingle} {
			cfg.Labels = append(cfg.Labels, label.Label{Marker: m, Type: t}.String())
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling labels: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
