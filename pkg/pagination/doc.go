// Package pagination fetches every page of a paged content API listing in
// parallel.
//
// The projects endpoint reports its page count as last_page in the response
// body. The batch fetcher reads page 1 to learn the count, then spreads the
// remaining pages over a bounded worker pool so the content API is not
// flooded.
//
// Example usage:
//
//	fetcher := pagination.NewBatchFetcher[portfolio.ProjectEntry](projects, pagination.DefaultConfig())
//	pages, err := fetcher.FetchAllPages(ctx)
//	all := pagination.Flatten(pages)
//
// The batch fetcher:
//   - Fetches the first page to determine total pages
//   - Spawns a worker pool (default 4 workers)
//   - Distributes remaining pages across workers
//   - Returns partial data together with the first worker error
//
// It backs the startup cache warm-up and the GET /api/projects listing.
package pagination
