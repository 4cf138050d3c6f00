// Package tokenizer wraps a HuggingFace tokenizer.json for NER inference,
// reporting token offsets in the caller's original text.
package tokenizer

import (
	"errors"
	"fmt"
	"os"

	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// ErrNotFound is returned when the tokenizer file does not exist.
var ErrNotFound = errors.New("tokenizer: file not found")

// Tokenizer encodes text into sub-word tokens. Input is NFKC normalized
// before encoding.
type Tokenizer struct {
	tk *hf.Tokenizer
}

// TokenInfo represents a token with its position in the original text.
type TokenInfo struct {
	ID    int32
	Text  string
	Start int // byte offset in original text
	End   int // byte offset in original text
}

// New loads a tokenizer from a HuggingFace tokenizer.json file.
func New(path string) (*Tokenizer, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat tokenizer: %w", err)
	}

	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer: %w", err)
	}
	return &Tokenizer{tk: tk}, nil
}

// Encode tokenizes text without adding special tokens.
func (t *Tokenizer) Encode(text string) ([]TokenInfo, error) {
	n := normalize(text)
	if n.text == "" {
		return nil, nil
	}

	enc, err := t.tk.EncodeSingle(n.text, false)
	if err != nil {
		return nil, fmt.Errorf("encoding text: %w", err)
	}

	tokens := make([]TokenInfo, len(enc.Ids))
	for i, id := range enc.Ids {
		tok := TokenInfo{ID: int32(id)}
		if i < len(enc.Tokens) {
			tok.Text = enc.Tokens[i]
		}
		if i < len(enc.Offsets) && len(enc.Offsets[i]) == 2 {
			tok.Start, tok.End = n.source(enc.Offsets[i][0], enc.Offsets[i][1])
		}
		tokens[i] = tok
	}
	return tokens, nil
}

// EncodeIDs returns the token IDs for text.
func (t *Tokenizer) EncodeIDs(text string) ([]int32, error) {
	tokens, err := t.Encode(text)
	if err != nil {
		return nil, err
	}
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = tok.ID
	}
	return ids, nil
}

// TokenID returns the ID of a vocabulary entry such as "[CLS]".
func (t *Tokenizer) TokenID(token string) (int32, bool) {
	id, ok := t.tk.TokenToId(token)
	return int32(id), ok
}

// VocabSize returns the vocabulary size including added tokens.
func (t *Tokenizer) VocabSize() int {
	return t.tk.GetVocabSize(true)
}

// Close releases tokenizer resources.
func (t *Tokenizer) Close() error {
	return nil
}
