package nereval

import (
	"log/slog"
	"runtime"

	"github.com/jamesainslie/go-nereval/label"
)

// Option configures a Tagger.
type Option func(*config)

type config struct {
	scheme    label.Scheme
	poolSize  int
	logger    *slog.Logger
	maxSeqLen int
	specials  *specialTokens
}

type specialTokens struct {
	cls, sep int32
}

func defaultConfig() config {
	return config{
		scheme:    label.BIOS,
		poolSize:  runtime.NumCPU(),
		logger:    slog.Default(),
		maxSeqLen: 512,
	}
}

// WithScheme sets the tagging scheme of the model's labels (default: BIOS).
func WithScheme(s label.Scheme) Option {
	return func(c *config) {
		c.scheme = s
	}
}

// WithPoolSize sets the ONNX session pool size (default: runtime.NumCPU()).
func WithPoolSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxSeqLen sets the model window in tokens, including the two special
// tokens (default: 512). Longer inputs are processed in overlapping chunks.
func WithMaxSeqLen(n int) Option {
	return func(c *config) {
		if n >= minSeqLen {
			c.maxSeqLen = n
		}
	}
}

// WithSpecialTokens sets the IDs wrapped around every chunk. By default they
// are looked up in the tokenizer vocabulary.
func WithSpecialTokens(cls, sep int32) Option {
	return func(c *config) {
		c.specials = &specialTokens{cls: cls, sep: sep}
	}
}
