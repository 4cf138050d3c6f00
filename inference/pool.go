package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Pool hands out sessions over one model so that several goroutines can
// run inference at once. At most Size inferences run concurrently.
type Pool struct {
	modelPath string
	size      int

	idle chan *Session
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewPool loads size sessions of the model at modelPath. A size below one
// is treated as one.
func NewPool(modelPath string, size int) (*Pool, error) {
	size = max(size, 1)

	p := &Pool{
		modelPath: modelPath,
		size:      size,
		idle:      make(chan *Session, size),
		done:      make(chan struct{}),
	}

	for i := range size {
		s, err := NewSession(modelPath)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("creating session %d: %w", i, err), p.Close())
		}
		p.idle <- s
	}
	return p, nil
}

// Acquire waits for an idle session. It fails with ErrPoolClosed once the
// pool is closed, or with the context error if ctx ends first.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}

	select {
	case s := <-p.idle:
		return s, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release hands s back to the pool. Sessions released after Close are
// closed instead.
func (p *Pool) Release(s *Session) {
	if s == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		select {
		case p.idle <- s:
			return
		default:
		}
	}
	_ = s.Close()
}

// Close closes the idle sessions. Sessions still acquired are closed when
// they are released. Close is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)

	var errs []error
	for {
		select {
		case s := <-p.idle:
			if err := s.Close(); err != nil {
				errs = append(errs, err)
			}
		default:
			return errors.Join(errs...)
		}
	}
}

// Infer runs one sequence on a pooled session and returns one logits row
// per input position.
func (p *Pool) Infer(ctx context.Context, ids, mask []int64) ([][]float32, error) {
	s, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(s)

	return s.Infer(ctx, ids, mask)
}

// Size returns the number of sessions.
func (p *Pool) Size() int {
	return p.size
}

// ModelPath returns the model file the sessions were loaded from.
func (p *Pool) ModelPath() string {
	return p.modelPath
}
