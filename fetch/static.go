package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"

	"cayman-scraper/config"
	"cayman-scraper/utils"
)

// StaticFetcher retrieves pages that render server-side, without a browser.
// The cross-source filter uses it for per-listing detail pages, where the
// identifier patterns are matched against the raw HTML text.
type StaticFetcher struct {
	collector *colly.Collector
	retry     *utils.RetryConfig
}

// NewStaticFetcher creates a StaticFetcher limited to the given domains.
func NewStaticFetcher(cfg *config.Config, logger *utils.Logger, domains ...string) (*StaticFetcher, error) {
	c := colly.NewCollector(
		colly.AllowedDomains(domains...),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(30 * time.Second)

	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.FetchBatchSize,
		RandomDelay: time.Duration(cfg.RateLimitMs) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("static fetcher: limit rule: %w", err)
	}

	return &StaticFetcher{
		collector: c,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}, nil
}

// Fetch returns the response body for url, or an error after exhausting
// retries. An empty body counts as a failed fetch.
func (f *StaticFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var content string

	err := f.retry.Do(ctx, fmt.Sprintf("fetch %s", url), func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Clone drops registered callbacks, so the user-agent extension
		// has to go on each clone, not the base collector.
		collector := f.collector.Clone()
		extensions.RandomUserAgent(collector)
		var body string
		var requestErr error

		collector.OnResponse(func(r *colly.Response) {
			body = string(r.Body)
		})
		collector.OnError(func(r *colly.Response, err error) {
			requestErr = fmt.Errorf("request to %s failed with status %d: %w",
				r.Request.URL, r.StatusCode, err)
		})

		if err := collector.Visit(url); err != nil {
			return fmt.Errorf("visit: %w", err)
		}
		collector.Wait()

		if requestErr != nil {
			return requestErr
		}
		if body == "" {
			return fmt.Errorf("empty response body")
		}

		content = body
		return nil
	})
	if err != nil {
		return "", err
	}

	return content, nil
}
