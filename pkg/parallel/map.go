package parallel

import (
	"errors"
	"fmt"
)

// ErrTaskPanicked is returned by Map when at least one task panicked.
var ErrTaskPanicked = errors.New("parallel task panicked")

// Map applies fn to every item on a pool of the given size and returns the
// results in input order. Each call gets its own pool, which is closed
// before Map returns.
func Map[T, R any](workers int, items []T, fn func(T) R) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	pool, err := NewWorkerPool(min(workers, len(items)))
	if err != nil {
		return nil, err
	}

	for i := range items {
		pool.Submit(func() {
			results[i] = fn(items[i])
		})
	}
	pool.Close()

	if n := pool.Panics(); n > 0 {
		return results, fmt.Errorf("%w: %d of %d tasks", ErrTaskPanicked, n, len(items))
	}
	return results, nil
}

// Chunk splits items into at most parts contiguous slices of near-equal
// length. It never returns empty chunks.
func Chunk[T any](items []T, parts int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}

	// Ceiling division in int64 to stay overflow-safe
	size := int((int64(len(items)) + int64(parts) - 1) / int64(parts))
	if size < 1 {
		size = 1
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
