package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cayman-scraper/fetch"
	"cayman-scraper/models"
	"cayman-scraper/notify"
	"cayman-scraper/services"
	"cayman-scraper/storage"
	"cayman-scraper/utils"
)

// Phase names, as reported in failure notifications.
const (
	PhaseFetching  = "fetching"
	PhaseParsing   = "parsing"
	PhaseFiltering = "filtering"
	PhaseSaving    = "saving"
)

// Source is one marketplace's crawl definition: which units to fetch and how
// to turn a fetched page into listings.
type Source interface {
	Name() string
	Units() []fetch.Unit
	ParsePage(page fetch.Page) ([]*models.Listing, error)
}

// Filter is the optional cross-source duplicate filter applied between
// parsing and saving (secondary source only).
type Filter interface {
	Filter(ctx context.Context, listings []*models.Listing) ([]*models.Listing, error)
}

// Coordinator is the fetch capability the runner drives.
type Coordinator interface {
	FetchAll(ctx context.Context, units []fetch.Unit) ([]fetch.Page, error)
}

// Result is the terminal outcome of one run.
type Result struct {
	Status      models.RunStatus
	StoredCount int
	FailedPhase string
	Err         error
}

// Runner executes one source's phase sequence with fail-fast semantics:
// every phase transition requires the previous phase's unconditional
// success, and a failure in any phase skips the rest, reports to the
// notifier, and writes a Failed audit row. Phases never run concurrently
// and never transition backward.
type Runner struct {
	source   Source
	coord    Coordinator
	filter   Filter // nil when the source needs no cross-source filtering
	store    storage.Store
	notifier notify.Notifier
	logger   *utils.Logger
	srcKind  models.Source
}

// NewRunner wires a runner for one source. The audit log is an explicit
// collaborator; the runner owns all JobRun writes.
func NewRunner(source Source, srcKind models.Source, coord Coordinator, filter Filter,
	store storage.Store, notifier notify.Notifier, logger *utils.Logger) *Runner {
	return &Runner{
		source:   source,
		srcKind:  srcKind,
		coord:    coord,
		filter:   filter,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Run drives Fetching → Parsing → (Filtering) → Saving → Done.
func (r *Runner) Run(ctx context.Context) Result {
	started := time.Now().UTC()
	name := r.source.Name()

	// Fetching
	units := r.source.Units()
	r.logger.Info("[%s] Fetching %d units", name, len(units))
	pages, err := r.coord.FetchAll(ctx, units)
	if err != nil {
		return r.fail(ctx, started, PhaseFetching, err)
	}

	// Parsing
	var parsed []*models.Listing
	for _, page := range pages {
		listings, err := r.source.ParsePage(page)
		if err != nil {
			return r.fail(ctx, started, PhaseParsing, err)
		}
		parsed = append(parsed, listings...)
	}
	r.logger.Info("[%s] Parsed %d listings", name, len(parsed))

	batch := services.Deduplicate(parsed)
	if len(batch) < len(parsed) {
		r.logger.Info("[%s] Removed %d same-run duplicates", name, len(parsed)-len(batch))
	}

	// Filtering (secondary source only)
	if r.filter != nil {
		batch, err = r.filter.Filter(ctx, batch)
		if err != nil {
			return r.fail(ctx, started, PhaseFiltering, err)
		}
	}

	// Saving
	if err := r.store.UpsertBatch(ctx, r.srcKind, batch); err != nil {
		return r.fail(ctx, started, PhaseSaving, err)
	}

	r.appendJobRun(ctx, models.JobRun{
		ID:          uuid.NewString(),
		ScriptName:  name,
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
		Status:      models.StatusSuccess,
		StoredCount: len(batch),
	})
	r.notifier.NotifySuccess(ctx, name, len(batch))
	r.logger.Info("[%s] Run complete, %d listings stored", name, len(batch))

	return Result{Status: models.StatusSuccess, StoredCount: len(batch)}
}

// fail reports the failing phase, writes the Failed audit row, and returns
// the terminal result. Nothing is committed before the saving phase and the
// save is all-or-nothing, so the stored count of a failed run is zero.
func (r *Runner) fail(ctx context.Context, started time.Time, phase string, cause error) Result {
	name := r.source.Name()
	r.logger.Error("[%s] Failed during %s: %v", name, phase, cause)

	r.notifier.NotifyFailure(ctx, name, phase, cause)
	r.appendJobRun(ctx, models.JobRun{
		ID:          uuid.NewString(),
		ScriptName:  name,
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
		Status:      models.StatusFailed,
		StoredCount: 0,
	})

	return Result{Status: models.StatusFailed, FailedPhase: phase, Err: cause}
}

// appendJobRun is best-effort: its own failure is logged, never masking the
// run outcome.
func (r *Runner) appendJobRun(ctx context.Context, run models.JobRun) {
	if err := r.store.AppendJobRun(ctx, run); err != nil {
		r.logger.Error("[%s] Failed to write job run audit row: %v", run.ScriptName, err)
	}
}
