package fetch

import (
	"context"
	"sync"

	"cayman-scraper/models"
	"cayman-scraper/utils"
)

// Fetcher is the content-extraction capability: it returns the raw
// text-or-markdown content for a URL or fails. Retry policy lives inside
// the implementation, not in the coordinator.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Unit is one (category, island, page) crawl unit resolved to a URL.
type Unit struct {
	Category models.Category
	Island   string
	Page     int
	URL      string
}

// Page is the raw content block for one fetched unit.
type Page struct {
	Unit    Unit
	Content string
}

// Coordinator retrieves content for every fetch unit or fails the whole
// operation. Units are processed in bounded-size concurrent batches; a batch
// fully resolves before the next starts, and the first failure cancels the
// current batch and skips all pending ones. There is no partial-success mode.
type Coordinator struct {
	fetcher   Fetcher
	batchSize int
	pool      *utils.WorkerPool
	logger    *utils.Logger
}

// NewCoordinator creates a Coordinator. batchSize < 1 is treated as 1.
func NewCoordinator(fetcher Fetcher, batchSize, rateLimitMs int, logger *utils.Logger) *Coordinator {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Coordinator{
		fetcher:   fetcher,
		batchSize: batchSize,
		pool:      utils.NewWorkerPool(batchSize, rateLimitMs),
		logger:    logger,
	}
}

// FetchAll fetches every unit and returns the pages in unit order.
func (c *Coordinator) FetchAll(ctx context.Context, units []Unit) ([]Page, error) {
	pages := make([]Page, len(units))

	for start := 0; start < len(units); start += c.batchSize {
		end := start + c.batchSize
		if end > len(units) {
			end = len(units)
		}

		if err := c.fetchBatch(ctx, units, pages, start, end); err != nil {
			c.logger.Error("[fetch] Batch %d-%d failed: %v, aborting run", start, end-1, err)
			return nil, err
		}

		c.logger.Debug("[fetch] Batch complete: units %d-%d of %d", start, end-1, len(units))
	}

	return pages, nil
}

func (c *Coordinator) fetchBatch(ctx context.Context, units []Unit, pages []Page, start, end int) error {
	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		firstErr error
	)

	for i := start; i < end; i++ {
		i := i
		c.pool.Submit(batchCtx, func() {
			content, err := c.fetcher.Fetch(batchCtx, units[i].URL)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = &models.FetchError{URL: units[i].URL, Err: err}
					cancel()
				}
				mu.Unlock()
				return
			}
			pages[i] = Page{Unit: units[i], Content: content}
		})
	}

	c.pool.Wait()

	// A cancelled context makes the pool skip jobs without running them,
	// leaving zero-valued pages behind. That run must fail, never finish
	// as an empty success.
	if firstErr == nil && ctx.Err() != nil {
		firstErr = &models.FetchError{URL: units[start].URL, Err: ctx.Err()}
	}
	return firstErr
}

// FetchOne retrieves a single URL. It is the capability the cross-source
// filter reuses for per-listing detail pages.
func (c *Coordinator) FetchOne(ctx context.Context, url string) (string, error) {
	content, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", &models.FetchError{URL: url, Err: err}
	}
	return content, nil
}
