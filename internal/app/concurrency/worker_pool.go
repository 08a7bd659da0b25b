// Package concurrency encodes page images in parallel while preserving order.
package concurrency

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"imagepress/internal/common"
	compressionDomain "imagepress/internal/domain/compression"
)

// WorkerPool fans page encoding out over an ants pool
type WorkerPool struct {
	maxWorkers int
	logger     *slog.Logger
}

// NewWorkerPool creates a new worker pool. maxWorkers <= 0 picks a size from the CPU count.
func NewWorkerPool(maxWorkers int, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	if maxWorkers <= 0 {
		maxWorkers = OptimalWorkerCount()
	}
	return &WorkerPool{maxWorkers: maxWorkers, logger: logger}
}

// OptimalWorkerCount caps the CPU count at common.MaxConcurrencyLimit
func OptimalWorkerCount() int {
	maxConcurrency := runtime.NumCPU()
	if maxConcurrency > common.MaxConcurrencyLimit {
		maxConcurrency = common.MaxConcurrencyLimit
	}
	return maxConcurrency
}

// MaxWorkers reports the pool size used per batch
func (wp *WorkerPool) MaxWorkers() int {
	return wp.maxWorkers
}

// EncodePages re-encodes every image at quality using policy. The returned
// pages are in input order. The first failing page, by position, is reported.
func (wp *WorkerPool) EncodePages(ctx context.Context, images []image.Image, quality int, policy compressionDomain.Policy) ([]compressionDomain.EncodedPage, error) {
	return wp.Run(ctx, images, func(job PageJob) (compressionDomain.EncodedPage, error) {
		return policy.Apply(job.Image, quality)
	})
}

// Run executes fn for every image and collects results by index
func (wp *WorkerPool) Run(ctx context.Context, images []image.Image, fn EncodeFunc) ([]compressionDomain.EncodedPage, error) {
	if len(images) == 0 {
		return nil, nil
	}

	size := min(wp.maxWorkers, len(images))
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]PageResult, len(images))
	var wg sync.WaitGroup

	for i, img := range images {
		job := PageJob{Index: i, Image: img}
		wg.Add(1)

		err := pool.Submit(func() {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[job.Index] = PageResult{Index: job.Index, Err: ctx.Err()}
				return
			default:
			}

			page, err := fn(job)
			if err != nil {
				wp.logger.Error("Error encoding page", "page", job.Index, "error", err)
			}
			results[job.Index] = PageResult{Index: job.Index, Page: page, Err: err}
		})

		if err != nil {
			wg.Done() // Submit failed, the task will never run
			wp.logger.Error("Failed to submit task", "page", i, "error", err)
			results[i] = PageResult{Index: i, Err: err}
		}
	}

	wg.Wait()

	pages := make([]compressionDomain.EncodedPage, len(results))
	for i, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, result.Err)
		}
		pages[i] = result.Page
	}

	wp.logger.Debug("Encoded pages", "count", len(pages), "workers", size)
	return pages, nil
}
