// Package utils carries SDK helpers that sit above the core packages:
// concurrent batch construction and batch broadcast of transactions.
package utils

import (
	"context"
	"sync"

	"github.com/klever-io/klever-connect-sub000/client"
	"github.com/klever-io/klever-connect-sub000/transaction"
)

// BatchConfig tunes a batch operation.
type BatchConfig struct {
	// Concurrency caps the number of in-flight items.
	Concurrency int
	// OnProgress is called after each completed item.
	OnProgress func(progress BatchProgress)
}

// BatchProgress is a snapshot of a running batch.
type BatchProgress struct {
	Completed  int
	Total      int
	Percentage int
	Success    int
	Failed     int
}

// DefaultBatchConfig returns the stock batch tuning.
func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{Concurrency: 5}
}

// BatchError records one failed item by its input index.
type BatchError struct {
	Index int
	Error error
}

// BatchResult collects per-item outcomes. Results keeps input order, with
// the zero value at failed indexes.
type BatchResult[R any] struct {
	Results []R
	Errors  []BatchError
	Total   int
	Success int
	Failed  int
}

// run is the shared bounded worker pool under the batch helpers.
func run[T any, R any](
	ctx context.Context,
	items []T,
	fn func(ctx context.Context, item T, index int) (R, error),
	config *BatchConfig,
) *BatchResult[R] {
	if config == nil {
		config = DefaultBatchConfig()
	}
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	out := &BatchResult[R]{
		Results: make([]R, len(items)),
		Total:   len(items),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for i, item := range items {
		wg.Add(1)
		go func(index int, item T) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := fn(ctx, item, index)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Errors = append(out.Errors, BatchError{Index: index, Error: err})
				out.Failed++
			} else {
				out.Results[index] = result
				out.Success++
			}
			if config.OnProgress != nil {
				completed := out.Success + out.Failed
				config.OnProgress(BatchProgress{
					Completed:  completed,
					Total:      len(items),
					Percentage: completed * 100 / len(items),
					Success:    out.Success,
					Failed:     out.Failed,
				})
			}
		}(i, item)
	}
	wg.Wait()
	return out
}

// BatchBuild constructs one independent transaction per item, feeding each
// build function a sequential nonce starting at startNonce. Every item gets
// its own nonce slot, so results can be signed and broadcast in any order;
// the build function must create its own builder per call.
func BatchBuild[T any](
	ctx context.Context,
	items []T,
	startNonce uint64,
	buildFn func(item T, nonce uint64) (*transaction.Transaction, error),
	config *BatchConfig,
) *BatchResult[*transaction.Transaction] {
	return run(ctx, items, func(ctx context.Context, item T, index int) (*transaction.Transaction, error) {
		return buildFn(item, startNonce+uint64(index))
	}, config)
}

// BatchBroadcast submits signed transactions concurrently through the
// provider, returning the hash per input index.
func BatchBroadcast(
	ctx context.Context,
	provider client.Provider,
	txs []*transaction.Transaction,
	config *BatchConfig,
) *BatchResult[string] {
	return run(ctx, txs, func(ctx context.Context, tx *transaction.Transaction, index int) (string, error) {
		return provider.Broadcast(ctx, tx)
	}, config)
}
