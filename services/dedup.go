package services

import "cayman-scraper/models"

// Deduplicate removes same-run duplicates sharing a detail-page link,
// keeping the first occurrence and preserving input order. The same detail
// page can show up on more than one listing page within a single crawl.
// Pure function; running it on its own output is a no-op.
func Deduplicate(listings []*models.Listing) []*models.Listing {
	seen := make(map[string]struct{}, len(listings))
	result := make([]*models.Listing, 0, len(listings))

	for _, l := range listings {
		if _, dup := seen[l.Link]; dup {
			continue
		}
		seen[l.Link] = struct{}{}
		result = append(result, l)
	}

	return result
}
