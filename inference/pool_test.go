package inference

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// openTestPool skips when the model or the runtime library is missing.
func openTestPool(t *testing.T, size int) *Pool {
	t.Helper()
	if _, err := os.Stat(testModelPath); err != nil {
		t.Skipf("Skipping: model not available at %s", testModelPath)
	}

	pool, err := NewPool(testModelPath, size)
	if err != nil {
		if isORTUnavailableError(err) {
			t.Skipf("Skipping: ONNX runtime not available: %v", err)
		}
		t.Fatalf("NewPool failed: %v", err)
	}
	return pool
}

func TestNewPool_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -5} {
		pool := openTestPool(t, size)
		if pool.Size() != 1 {
			t.Errorf("NewPool(%d): expected size 1, got %d", size, pool.Size())
		}
		_ = pool.Close()
	}
}

func TestNewPool_ModelNotFound(t *testing.T) {
	_, err := NewPool("../testdata/nonexistent.onnx", 2)
	if err == nil {
		t.Error("expected error for non-existent model file")
	}
}

func TestPool_AcquireRelease(t *testing.T) {
	pool := openTestPool(t, 2)
	defer func() { _ = pool.Close() }()

	ctx := context.Background()

	s1, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 1 failed: %v", err)
	}
	s2, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 2 failed: %v", err)
	}

	// Third acquire should block
	ctx3, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = pool.Acquire(ctx3)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}

	pool.Release(s1)

	s3, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 3 failed: %v", err)
	}

	pool.Release(s2)
	pool.Release(s3)
}

func TestPool_Infer(t *testing.T) {
	pool := openTestPool(t, 1)
	defer func() { _ = pool.Close() }()

	logits, err := pool.Infer(context.Background(), []int64{101, 1287, 102}, []int64{1, 1, 1})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if len(logits) != 3 {
		t.Errorf("expected 3 rows, got %d", len(logits))
	}

	// The session went back to the pool.
	s, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after Infer failed: %v", err)
	}
	pool.Release(s)
}

func TestPool_ReleaseNil(t *testing.T) {
	pool := openTestPool(t, 1)
	defer func() { _ = pool.Close() }()

	pool.Release(nil)
}

func TestPool_Close_Idempotent(t *testing.T) {
	pool := openTestPool(t, 2)

	if err := pool.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Acquire after Close = %v, want ErrPoolClosed", err)
	}
}

func TestPool_ReleaseAfterClose(t *testing.T) {
	pool := openTestPool(t, 1)

	session, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Release closes the session instead of returning it
	pool.Release(session)
}

func TestPool_AcquireContextCancellation(t *testing.T) {
	pool := openTestPool(t, 1)
	defer func() { _ = pool.Close() }()

	s1, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire 1 failed: %v", err)
	}
	defer pool.Release(s1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = pool.Acquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPool_ConcurrentAccess(t *testing.T) {
	pool := openTestPool(t, 3)
	defer func() { _ = pool.Close() }()

	var (
		wg           sync.WaitGroup
		successCount atomic.Int64
		errCount     atomic.Int64
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				session, err := pool.Acquire(ctx)
				cancel()
				if err != nil {
					errCount.Add(1)
					continue
				}

				time.Sleep(time.Millisecond)

				pool.Release(session)
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()

	if successCount.Load() == 0 {
		t.Error("expected at least some successful acquire/release cycles")
	}
	t.Logf("Concurrent test completed: %d successes, %d timeouts", successCount.Load(), errCount.Load())
}

func TestPool_Size(t *testing.T) {
	for _, size := range []int{1, 2, 5} {
		pool := openTestPool(t, size)
		if got := pool.Size(); got != size {
			t.Errorf("Size() = %d, want %d", got, size)
		}
		if pool.ModelPath() != testModelPath {
			t.Errorf("ModelPath() = %q, want %q", pool.ModelPath(), testModelPath)
		}
		_ = pool.Close()
	}
}
