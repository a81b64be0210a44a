package services

import (
	"context"
	"regexp"

	"cayman-scraper/models"
	"cayman-scraper/utils"
)

// DetailFetcher is the single-unit fetch capability the filter reuses for
// per-listing detail pages.
type DetailFetcher interface {
	FetchOne(ctx context.Context, url string) (string, error)
}

// mlsPatterns are the recognized primary-source identifier formats. A match
// against any one of them marks the listing as already represented in the
// MLS. Unrelated numeric substrings (street numbers, prices) must not match.
var mlsPatterns = []*regexp.Regexp{
	// "MLS#: 123456", "MLS #123456", "MLS#123456"
	regexp.MustCompile(`(?i)\bMLS\s*#\s*:?\s*\d{4,8}\b`),
	// "MLS-123456", "MLS: 123456", "MLS 123456"
	regexp.MustCompile(`(?i)\bMLS\s*[-:\s]\s*\d{4,8}\b`),
	// "Multiple Listing Service: 123456"
	regexp.MustCompile(`(?i)\bMultiple\s+Listing\s+Service\s*[-:#]?\s*\d{4,8}\b`),
}

// ContainsMLSIdentifier reports whether the detail-page content carries a
// recognized primary-source identifier.
func ContainsMLSIdentifier(content string) bool {
	for _, p := range mlsPatterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// MLSFilter excludes secondary-source listings that are already represented
// in the primary MLS source. Presence of a recognized identifier on the
// candidate's detail page is the sole signal; no price or name similarity
// heuristics are involved.
type MLSFilter struct {
	fetcher DetailFetcher
	logger  *utils.Logger
}

// NewMLSFilter creates an MLSFilter fetching detail pages through fetcher.
func NewMLSFilter(fetcher DetailFetcher, logger *utils.Logger) *MLSFilter {
	return &MLSFilter{fetcher: fetcher, logger: logger}
}

// Filter returns the subset of listings whose detail pages carry no MLS
// identifier, in input order. Detail pages are fetched one per candidate;
// this round trip is the dominant cost of a secondary-source run. A failed
// detail fetch aborts the run: passing an unverified candidate through could
// store a cross-source duplicate, which is worse than re-running.
func (f *MLSFilter) Filter(ctx context.Context, listings []*models.Listing) ([]*models.Listing, error) {
	survivors := make([]*models.Listing, 0, len(listings))

	for _, l := range listings {
		content, err := f.fetcher.FetchOne(ctx, l.Link)
		if err != nil {
			return nil, err
		}

		if ContainsMLSIdentifier(content) {
			f.logger.Info("[mls-filter] Excluding %s, MLS identifier found on detail page", l.Link)
			continue
		}
		survivors = append(survivors, l)
	}

	f.logger.Info("[mls-filter] %d of %d candidates survived", len(survivors), len(listings))
	return survivors, nil
}
