package nereval

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrModelNotFound indicates the model file does not exist.
	ErrModelNotFound = errors.New("nereval: model file not found")

	// ErrInvalidModel indicates the model file exists but cannot be used
	// for token classification with the given labels.
	ErrInvalidModel = errors.New("nereval: invalid model")

	// ErrTokenizerFailed indicates tokenizer initialization failed.
	ErrTokenizerFailed = errors.New("nereval: tokenizer initialization failed")

	// ErrNoLabels indicates New was called without a label map.
	ErrNoLabels = errors.New("nereval: label map is required")
)
