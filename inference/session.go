// Package inference provides ONNX Runtime integration for token
// classification models.
package inference

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	inputIDs      = "input_ids"
	attentionMask = "attention_mask"
	tokenTypeIDs  = "token_type_ids"
)

var (
	ortEnvOnce sync.Once
	ortEnvErr  error
)

// SetLibraryPath points ONNX Runtime at a specific shared library. It must be
// called before the first session is created.
func SetLibraryPath(path string) {
	if path != "" {
		ort.SetSharedLibraryPath(path)
	}
}

// initORT initializes ONNX Runtime environment once.
func initORT() error {
	ortEnvOnce.Do(func() {
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// Session wraps an ONNX Runtime session for a token classification model.
// The model takes input_ids and attention_mask, optionally token_type_ids,
// and produces logits shaped [batch, sequence, labels].
type Session struct {
	session    *ort.DynamicAdvancedSession
	inputNames []string
	mu         sync.Mutex
	closed     bool
}

// NewSession creates a new ONNX session from a model file.
func NewSession(modelPath string) (*Session, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	if err := initORT(); err != nil {
		return nil, fmt.Errorf("initializing ONNX runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("reading model signature: %w", err)
	}
	inputNames, outputName, err := signature(inputs, outputs)
	if err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer func() { _ = options.Destroy() }() // Cleanup error doesn't affect success

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		inputNames,
		[]string{outputName},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &Session{session: session, inputNames: inputNames}, nil
}

// signature picks the input names to feed and the logits output.
func signature(inputs, outputs []ort.InputOutputInfo) ([]string, string, error) {
	names := make([]string, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		switch in.Name {
		case inputIDs, attentionMask, tokenTypeIDs:
			names = append(names, in.Name)
			seen[in.Name] = true
		default:
			return nil, "", fmt.Errorf("%w: unexpected input %q", ErrUnsupportedModel, in.Name)
		}
	}
	if !seen[inputIDs] || !seen[attentionMask] {
		return nil, "", fmt.Errorf("%w: need %s and %s inputs", ErrUnsupportedModel, inputIDs, attentionMask)
	}
	if len(outputs) == 0 {
		return nil, "", fmt.Errorf("%w: no outputs", ErrUnsupportedModel)
	}

	output := outputs[0].Name
	for _, out := range outputs {
		if out.Name == "logits" {
			output = out.Name
			break
		}
	}
	return names, output, nil
}

// Infer runs the model on one tokenized sequence and returns one row of
// label logits per token.
func (s *Session) Infer(ctx context.Context, ids, mask []int64) ([][]float32, error) {
	// Check context before expensive operation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if len(ids) != len(mask) {
		return nil, fmt.Errorf("input_ids length %d != attention_mask length %d", len(ids), len(mask))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	seqLen := int64(len(ids))
	shape := ort.NewShape(1, seqLen)

	inputs := make([]ort.Value, 0, len(s.inputNames))
	defer func() {
		for _, v := range inputs {
			_ = v.Destroy()
		}
	}()
	for _, name := range s.inputNames {
		data := ids
		switch name {
		case attentionMask:
			data = mask
		case tokenTypeIDs:
			data = make([]int64, len(ids))
		}
		tensor, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("creating %s tensor: %w", name, err)
		}
		inputs = append(inputs, tensor)
	}

	// nil entries will be allocated by Run
	outputs := []ort.Value{nil}

	if err := s.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("running inference: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("no output produced")
	}
	defer func() { _ = outputs[0].Destroy() }()

	logitsTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type")
	}

	dims := logitsTensor.GetShape()
	if len(dims) != 3 || dims[0] != 1 || dims[1] != seqLen {
		return nil, fmt.Errorf("%w: logits shape %v", ErrUnsupportedModel, dims)
	}

	return splitRows(logitsTensor.GetData(), int(seqLen), int(dims[2])), nil
}

// splitRows copies a row-major [rows, cols] buffer into separate rows.
func splitRows(data []float32, rows, cols int) [][]float32 {
	out := make([][]float32, rows)
	for i := range out {
		row := make([]float32, cols)
		copy(row, data[i*cols:(i+1)*cols])
		out[i] = row
	}
	return out
}

// Close releases ONNX resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}
