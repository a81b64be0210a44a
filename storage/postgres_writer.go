package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"cayman-scraper/models"
)

// PostgresWriter persists listings and job-run audit rows to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id          SERIAL PRIMARY KEY,
			source      VARCHAR(50)   NOT NULL,
			link        TEXT          NOT NULL,
			mls_number  VARCHAR(50)   NOT NULL DEFAULT '',
			category    VARCHAR(50)   NOT NULL,
			island      TEXT          NOT NULL DEFAULT '',
			district    TEXT          NOT NULL DEFAULT '',
			price_usd   NUMERIC(14,2) NOT NULL,
			beds        INT,
			baths       INT,
			sqft        INT,
			acres       DOUBLE PRECISION,
			image_urls  TEXT[]        NOT NULL DEFAULT '{}',
			raw_price   TEXT          NOT NULL DEFAULT '',
			currency    VARCHAR(10)   NOT NULL DEFAULT '',
			fx_rate     NUMERIC(24,18) NOT NULL DEFAULT 1,
			scraped_at  TIMESTAMPTZ   NOT NULL,
			created_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			UNIQUE (source, link)
		);

		CREATE INDEX IF NOT EXISTS idx_listings_source    ON listings(source);
		CREATE INDEX IF NOT EXISTS idx_listings_category  ON listings(category);
		CREATE INDEX IF NOT EXISTS idx_listings_price_usd ON listings(price_usd);
		CREATE INDEX IF NOT EXISTS idx_listings_created   ON listings(created_at);

		CREATE TABLE IF NOT EXISTS job_runs (
			id           UUID PRIMARY KEY,
			script_name  VARCHAR(100) NOT NULL,
			started_at   TIMESTAMPTZ  NOT NULL,
			finished_at  TIMESTAMPTZ  NOT NULL,
			status       VARCHAR(20)  NOT NULL,
			stored_count INT          NOT NULL
		);
	`)
	return err
}

// UpsertBatch bulk-upserts listings keyed by (source, link) inside a single
// transaction, so the call fails or commits as a whole. No field validation
// happens here.
func (pw *PostgresWriter) UpsertBatch(ctx context.Context, source models.Source, listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return &models.StoreError{Op: "upsert begin", Err: err}
	}
	defer tx.Rollback()

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.upsertChunk(ctx, tx, listings[i:end]); err != nil {
			return &models.StoreError{Op: "upsert batch", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &models.StoreError{Op: "upsert commit", Err: err}
	}
	return nil
}

func (pw *PostgresWriter) upsertChunk(ctx context.Context, tx *sql.Tx, chunk []*models.Listing) error {
	const cols = 16
	valueStrings := make([]string, 0, len(chunk))
	valueArgs := make([]interface{}, 0, len(chunk)*cols)

	for idx, l := range chunk {
		base := idx * cols
		placeholders := make([]string, cols)
		for p := 0; p < cols; p++ {
			placeholders[p] = fmt.Sprintf("$%d", base+p+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			string(l.Source), l.Link, l.MLSNumber, string(l.Category),
			l.Island, l.District, l.PriceUSD, l.Beds, l.Baths,
			l.SquareFootage, l.Acres, pq.Array(l.ImageURLs),
			l.RawPrice, l.Currency, l.FXRateUsed, l.ScrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (
			source, link, mls_number, category, island, district, price_usd,
			beds, baths, sqft, acres, image_urls, raw_price, currency,
			fx_rate, scraped_at
		)
		VALUES %s
		ON CONFLICT (source, link) DO UPDATE SET
			mls_number = EXCLUDED.mls_number,
			category   = EXCLUDED.category,
			island     = EXCLUDED.island,
			district   = EXCLUDED.district,
			price_usd  = EXCLUDED.price_usd,
			beds       = EXCLUDED.beds,
			baths      = EXCLUDED.baths,
			sqft       = EXCLUDED.sqft,
			acres      = EXCLUDED.acres,
			image_urls = EXCLUDED.image_urls,
			raw_price  = EXCLUDED.raw_price,
			currency   = EXCLUDED.currency,
			fx_rate    = EXCLUDED.fx_rate,
			scraped_at = EXCLUDED.scraped_at
	`, strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

// AppendJobRun writes one immutable audit row for a pipeline execution.
func (pw *PostgresWriter) AppendJobRun(ctx context.Context, run models.JobRun) error {
	_, err := pw.db.ExecContext(ctx, `
		INSERT INTO job_runs (id, script_name, started_at, finished_at, status, stored_count)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID, run.ScriptName, run.StartedAt, run.FinishedAt, string(run.Status), run.StoredCount)
	if err != nil {
		return &models.StoreError{Op: "append job run", Err: err}
	}
	return nil
}

// DeleteListingsOlderThan removes listings whose row age exceeds ttlDays,
// in bounded batches to keep individual statements short. Returns the total
// number of rows deleted.
func (pw *PostgresWriter) DeleteListingsOlderThan(ctx context.Context, ttlDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -ttlDays)
	const batchSize = 100

	var total int64
	for {
		res, err := pw.db.ExecContext(ctx, `
			DELETE FROM listings
			WHERE id IN (
				SELECT id FROM listings WHERE created_at < $1 LIMIT $2
			)
		`, cutoff, batchSize)
		if err != nil {
			return total, &models.StoreError{Op: "cleanup listings", Err: err}
		}

		n, err := res.RowsAffected()
		if err != nil {
			return total, &models.StoreError{Op: "cleanup listings", Err: err}
		}
		total += n
		if n < batchSize {
			return total, nil
		}
	}
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
