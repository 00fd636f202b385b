package pagination

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultMaxPages bounds how many pages a listing may report.
const DefaultMaxPages = 100

// ErrTooManyPages is returned when the first page reports more pages than
// Config.MaxPages allows.
var ErrTooManyPages = errors.New("listing reports too many pages")

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests.
	MaxConcurrency int
	// Timeout per page fetch.
	Timeout time.Duration
	// MaxPages caps the page count taken from the upstream.
	MaxPages int
}

// DefaultConfig returns a conservative configuration for a small content API.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		MaxPages:       DefaultMaxPages,
	}
}

// PageFetcher fetches a single page and reports the total page count.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page int) (items []T, totalPages int, err error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, page int) ([]T, int, error)

// FetchPage calls f.
func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, page int) ([]T, int, error) {
	return f(ctx, page)
}

// PageResult is the outcome of fetching one page.
type PageResult[T any] struct {
	PageNumber int
	Items      []T
	Error      error
}

// BatchFetcher fetches all pages of a listing with a worker pool.
type BatchFetcher[T any] struct {
	fetcher PageFetcher[T]
	config  Config
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher[T any](fetcher PageFetcher[T], config Config) *BatchFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.MaxPages <= 0 {
		config.MaxPages = DefaultMaxPages
	}

	return &BatchFetcher[T]{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAllPages fetches every page. It returns a map of page number to
// items; on a worker error the pages fetched so far are returned with it.
func (bf *BatchFetcher[T]) FetchAllPages(ctx context.Context) (map[int][]T, error) {
	start := time.Now()

	firstCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	firstItems, totalPages, err := bf.fetcher.FetchPage(firstCtx, 1)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}
	if totalPages < 1 {
		totalPages = 1
	}
	if totalPages > bf.config.MaxPages {
		return map[int][]T{1: firstItems}, fmt.Errorf("%w: %d (max %d)", ErrTooManyPages, totalPages, bf.config.MaxPages)
	}

	results := map[int][]T{1: firstItems}

	if totalPages == 1 {
		log.Debug().
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return results, nil
	}

	log.Info().
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	// The producer stops once every worker has exited.
	workCtx, stop := context.WithCancel(ctx)
	defer stop()

	pageQueue := make(chan int)
	pageResults := make(chan PageResult[T])
	errs := make(chan error, bf.config.MaxConcurrency)

	go func() {
		defer close(pageQueue)
		for page := 2; page <= totalPages; page++ {
			select {
			case pageQueue <- page:
			case <-workCtx.Done():
				return
			}
		}
	}()

	workers := bf.config.MaxConcurrency
	if workers > totalPages-1 {
		workers = totalPages - 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(ctx, pageQueue, pageResults, errs, &wg, i)
	}

	go func() {
		wg.Wait()
		stop()
		close(pageResults)
		close(errs)
	}()

	for result := range pageResults {
		results[result.PageNumber] = result.Items
	}

	if err, ok := <-errs; ok && err != nil {
		log.Warn().
			Err(err).
			Int("fetched_pages", len(results)).
			Int("total_pages", totalPages).
			Msg("Worker error - returning partial results")
		return results, fmt.Errorf("worker error (partial data: %d/%d pages): %w", len(results), totalPages, err)
	}
	if err := ctx.Err(); err != nil && len(results) < totalPages {
		return results, fmt.Errorf("fetch interrupted (partial data: %d/%d pages): %w", len(results), totalPages, err)
	}

	log.Info().
		Int("pages", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}

// worker processes pages from the queue until it drains, the context ends
// or a fetch fails.
func (bf *BatchFetcher[T]) worker(ctx context.Context, pageQueue <-chan int, results chan<- PageResult[T], errs chan<- error, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		if ctx.Err() != nil {
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		items, _, err := bf.fetcher.FetchPage(pageCtx, pageNum)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", pageNum).
				Msg("Page fetch failed")

			select {
			case errs <- fmt.Errorf("page %d: %w", pageNum, err):
			default:
			}
			return
		}

		// FetchAllPages drains results until every worker has exited.
		results <- PageResult[T]{PageNumber: pageNum, Items: items}
		pagesProcessed++
	}

	if pagesProcessed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}

// Flatten concatenates pages in page order.
func Flatten[T any](pages map[int][]T) []T {
	nums := make([]int, 0, len(pages))
	total := 0
	for n, items := range pages {
		nums = append(nums, n)
		total += len(items)
	}
	sort.Ints(nums)

	out := make([]T, 0, total)
	for _, n := range nums {
		out = append(out, pages[n]...)
	}
	return out
}
