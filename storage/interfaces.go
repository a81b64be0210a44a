package storage

import (
	"context"

	"cayman-scraper/models"
)

// ListingStore persists finished batches. The store performs no validation:
// it trusts that every listing it receives was produced by the normalizer
// with no unresolved conversion.
type ListingStore interface {
	// UpsertBatch bulk-upserts listings keyed by (source, link), so
	// re-running the pipeline updates existing rows rather than
	// duplicating them.
	UpsertBatch(ctx context.Context, source models.Source, listings []*models.Listing) error
}

// JobRunStore is the append-only audit log of pipeline executions.
type JobRunStore interface {
	AppendJobRun(ctx context.Context, run models.JobRun) error
}

// Store is the full persistence surface the pipeline consumes.
type Store interface {
	ListingStore
	JobRunStore
}
