package inference

import "errors"

var (
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("inference: pool is closed")

	// ErrSessionClosed is returned by Infer after Close.
	ErrSessionClosed = errors.New("inference: session is closed")

	// ErrUnsupportedModel indicates the model's inputs or outputs are not
	// those of a token classification model.
	ErrUnsupportedModel = errors.New("inference: unsupported model signature")
)
