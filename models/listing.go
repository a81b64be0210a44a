package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which marketplace a listing was scraped from.
type Source string

const (
	// SourceCIREBA is the primary MLS marketplace.
	SourceCIREBA Source = "cireba"
	// SourceEcayTrade is the secondary classifieds marketplace.
	SourceEcayTrade Source = "ecaytrade"
)

// Category is the normalized property type. Raw type strings are mapped to
// one of these values at parse time; an unmapped string is a conversion
// failure, never passed through.
type Category string

const (
	CategoryHome       Category = "Home"
	CategoryCondo      Category = "Condo"
	CategoryDuplex     Category = "Duplex"
	CategoryTownhouse  Category = "Townhouse"
	CategoryLand       Category = "Land"
	CategoryCommercial Category = "Commercial"
)

// Listing is one property advertisement, fully normalized and ready for
// storage. Created only by the per-source parsers and never mutated after
// construction; currency conversion happens exactly once, there.
type Listing struct {
	Source Source

	// Link is the canonical detail-page URL and the identity key used for
	// deduplication within a run and for upserts at the storage layer.
	Link string

	// MLSNumber is the marketplace-assigned identifier when the source
	// exposes one (CIREBA only).
	MLSNumber string

	Category Category
	Island   string
	District string

	// PriceUSD is always positive and always USD after conversion.
	PriceUSD decimal.Decimal

	Beds          *int
	Baths         *int
	SquareFootage *int
	Acres         *float64

	// ImageURLs is ordered; the primary image comes first.
	ImageURLs []string

	// RawPrice and Currency record the price exactly as advertised;
	// FXRateUsed is the fixed rate the conversion applied.
	RawPrice   string
	Currency   string
	FXRateUsed decimal.Decimal

	ScrapedAt time.Time
}

// RunStatus is the terminal status of one pipeline execution.
type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusFailed  RunStatus = "failed"
)

// JobRun is the single audit row written per pipeline execution. Immutable
// once written; StoredCount reflects what was actually persisted (zero on
// failed runs unless the failure happened after the save).
type JobRun struct {
	ID          string
	ScriptName  string
	StartedAt   time.Time
	FinishedAt  time.Time
	Status      RunStatus
	StoredCount int
}
