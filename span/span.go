// Package span decodes per-token tag sequences into typed entity spans.
package span

import (
	"fmt"

	"github.com/jamesainslie/go-nereval/label"
)

// Span is an entity covering tokens [Start, End], inclusive and 0-based.
type Span struct {
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func (s Span) String() string {
	return fmt.Sprintf("%s[%d:%d]", s.Type, s.Start, s.End)
}

// Len returns the number of tokens the span covers.
func (s Span) Len() int { return s.End - s.Start + 1 }

// Decode turns a tag sequence into spans ordered by start index.
//
// An I tag that does not continue an open span of the same type opens a new
// span at its position instead of being dropped. Taggers emit such locally
// inconsistent paths routinely.
func Decode(tags []string, scheme label.Scheme) ([]Span, error) {
	var (
		spans   []Span
		current Span
		open    bool
	)

	closeCurrent := func() {
		if open {
			spans = append(spans, current)
			open = false
		}
	}

	for i, tag := range tags {
		l, err := label.Parse(tag, scheme)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}

		switch l.Marker {
		case label.MarkerOutside:
			closeCurrent()
		case label.MarkerSingle:
			closeCurrent()
			spans = append(spans, Span{Type: l.Type, Start: i, End: i})
		case label.MarkerBegin:
			closeCurrent()
			current = Span{Type: l.Type, Start: i, End: i}
			open = true
		case label.MarkerInside:
			if open && current.Type == l.Type {
				current.End = i
				continue
			}
			closeCurrent()
			current = Span{Type: l.Type, Start: i, End: i}
			open = true
		default:
			return nil, fmt.Errorf("position %d: unhandled marker %v", i, l.Marker)
		}
	}
	closeCurrent()

	return spans, nil
}

// DecodeIDs resolves ids through m and decodes the resulting tags.
func DecodeIDs(ids []int, m *label.Map, scheme label.Scheme) ([]Span, error) {
	tags, err := m.Resolve(ids)
	if err != nil {
		return nil, err
	}
	return Decode(tags, scheme)
}

// Trim drops the leading sentinel position and everything from length-1 on,
// leaving the interior tokens of a [CLS] ... [SEP] encoded sequence.
// length is the valid length of ids including both sentinels.
func Trim(ids []int, length int) []int {
	if length > len(ids) {
		length = len(ids)
	}
	if length < 2 {
		return []int{}
	}
	return ids[1 : length-1]
}

// Encode re-derives a tag sequence of n tokens from spans. Tokens outside
// every span are tagged O. Under BIOS a one-token span is tagged S, under
// BIO it is tagged B. Spans that fall outside [0, n) are clipped.
func Encode(spans []Span, n int, scheme label.Scheme) []string {
	tags := make([]string, n)
	for i := range tags {
		tags[i] = label.Outside
	}

	for _, s := range spans {
		start, end := max(s.Start, 0), min(s.End, n-1)
		if start > end {
			continue
		}
		if start == end && scheme == label.BIOS {
			tags[start] = label.Label{Marker: label.MarkerSingle, Type: s.Type}.String()
			continue
		}
		tags[start] = label.Label{Marker: label.MarkerBegin, Type: s.Type}.String()
		for i := start + 1; i <= end; i++ {
			tags[i] = label.Label{Marker: label.MarkerInside, Type: s.Type}.String()
		}
	}
	return tags
}
