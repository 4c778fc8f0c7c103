package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// WorkerPoolConfig configures a bounded worker pool.
type WorkerPoolConfig struct {
	Name          string // Used as the logger name
	MaxConcurrent int    // Maximum concurrent calls (default: 8)
}

// DefaultWorkerPoolConfig returns sensible defaults.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		Name:          "worker-pool",
		MaxConcurrent: 8,
	}
}

// WorkerPool runs model-service calls with bounded parallelism.
// A semaphore limits outstanding calls; each item fails or succeeds on its own.
type WorkerPool struct {
	config WorkerPoolConfig
	logger *zap.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(config WorkerPoolConfig, logger *zap.Logger) *WorkerPool {
	defaults := DefaultWorkerPoolConfig()
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = defaults.MaxConcurrent
	}
	if config.Name == "" {
		config.Name = defaults.Name
	}
	return &WorkerPool{
		config: config,
		logger: logger.Named(config.Name),
	}
}

// MaxConcurrent returns the pool's concurrency bound.
func (p *WorkerPool) MaxConcurrent() int {
	return p.config.MaxConcurrent
}

// WorkItem represents a unit of work to be processed.
type WorkItem[T any] struct {
	ID      string                               // For logging/tracking
	Execute func(ctx context.Context) (T, error) // The work to be executed
}

// WorkResult represents the result of a work item.
type WorkResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// Process executes all work items with bounded parallelism.
// Returns results in completion order (not submission order).
// Continues processing all items even if some fail or panic.
func Process[T any](
	ctx context.Context,
	pool *WorkerPool,
	items []WorkItem[T],
	onProgress func(completed, total int),
) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	results := make([]WorkResult[T], 0, len(items))
	resultsChan := make(chan WorkResult[T], len(items))
	sem := make(chan struct{}, pool.config.MaxConcurrent)

	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func(item WorkItem[T]) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero T
				resultsChan <- WorkResult[T]{ID: item.ID, Result: zero, Err: ctx.Err()}
				return
			}

			resultsChan <- executeItem(ctx, pool.logger, item)
		}(item)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	completed := 0
	for result := range resultsChan {
		results = append(results, result)
		completed++
		if onProgress != nil {
			onProgress(completed, len(items))
		}
	}

	return results
}

// execute runs one item, converting a panic into an error so siblings keep going.
func executeItem[T any](ctx context.Context, logger *zap.Logger, item WorkItem[T]) (result WorkResult[T]) {
	result.ID = item.ID
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Work item panicked",
				zap.String("id", item.ID),
				zap.Any("panic", r))
			var zero T
			result.Result = zero
			result.Err = &PanicError{ID: item.ID, Value: r}
		}
	}()

	result.Result, result.Err = item.Execute(ctx)
	return result
}

// PanicError reports a work item that panicked.
type PanicError struct {
	ID    string
	Value any
}

func (e *PanicError) Error() string {
	return "work item " + e.ID + " panicked"
}
