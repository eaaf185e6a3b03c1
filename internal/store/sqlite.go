package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/anmolkh/internradar/internal/model"
)

// Ensure SQLiteStore implements model.JobStore.
var _ model.JobStore = (*SQLiteStore)(nil)

// SQLiteStore persists admitted postings in SQLite. The primary key on
// (source, external_id) is the system's sole guard against duplicate
// admission when cycles race.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the jobs table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS jobs (
		source         TEXT NOT NULL,
		external_id    TEXT NOT NULL,
		title          TEXT NOT NULL,
		company        TEXT NOT NULL,
		location       TEXT,
		url            TEXT NOT NULL,
		posted_at      TIMESTAMP,
		updated_at     TIMESTAMP,
		first_ingested TIMESTAMP NOT NULL,
		PRIMARY KEY (source, external_id)
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Upsert admits a job against the (source, external_id) natural key.
//
// Unseen keys insert with first_ingested set to now. A lost insert race is
// absorbed by ON CONFLICT DO NOTHING and reported as unchanged. Known keys
// update mutable fields only when the incoming updated_at is strictly newer
// than the stored one; first_ingested is never overwritten.
func (s *SQLiteStore) Upsert(ctx context.Context, job model.Job) (model.Outcome, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (source, external_id, title, company, location, url, posted_at, updated_at, first_ingested)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, external_id) DO NOTHING`,
		string(job.Source), job.ExternalID, job.Title, job.Company, nullString(job.Location),
		job.URL, job.PostedAt, job.UpdatedAt, time.Now().UTC(),
	)
	if err != nil {
		return model.OutcomeUnchanged, fmt.Errorf("inserting job %s/%s: %w", job.Source, job.ExternalID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return model.OutcomeInserted, nil
	}

	// Key already present. Without an update signal the record is unchanged.
	if job.UpdatedAt == nil {
		return model.OutcomeUnchanged, nil
	}

	res, err = s.db.ExecContext(ctx, `
		UPDATE jobs
		SET title = ?, company = ?, location = ?, url = ?, posted_at = ?, updated_at = ?
		WHERE source = ? AND external_id = ?
		  AND (updated_at IS NULL OR updated_at < ?)`,
		job.Title, job.Company, nullString(job.Location), job.URL, job.PostedAt, job.UpdatedAt,
		string(job.Source), job.ExternalID, job.UpdatedAt,
	)
	if err != nil {
		return model.OutcomeUnchanged, fmt.Errorf("updating job %s/%s: %w", job.Source, job.ExternalID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return model.OutcomeUpdated, nil
	}

	return model.OutcomeUnchanged, nil
}

// Recent returns up to limit stored jobs, freshest first. Postings without a
// provider timestamp sort after those with one.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]model.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, external_id, title, company, location, url, posted_at, updated_at, first_ingested
		FROM jobs
		ORDER BY posted_at DESC NULLS LAST, first_ingested DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var (
			job       model.Job
			source    string
			location  sql.NullString
			postedAt  sql.NullTime
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&source, &job.ExternalID, &job.Title, &job.Company, &location,
			&job.URL, &postedAt, &updatedAt, &job.FirstIngested); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		job.Source = model.Source(source)
		job.Location = location.String
		if postedAt.Valid {
			t := postedAt.Time
			job.PostedAt = &t
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			job.UpdatedAt = &t
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Get fetches one job by its natural key. Returns sql.ErrNoRows if absent.
func (s *SQLiteStore) Get(ctx context.Context, source model.Source, externalID string) (model.Job, error) {
	var (
		job       model.Job
		src       string
		location  sql.NullString
		postedAt  sql.NullTime
		updatedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT source, external_id, title, company, location, url, posted_at, updated_at, first_ingested
		FROM jobs WHERE source = ? AND external_id = ?`,
		string(source), externalID,
	).Scan(&src, &job.ExternalID, &job.Title, &job.Company, &location,
		&job.URL, &postedAt, &updatedAt, &job.FirstIngested)
	if err != nil {
		return model.Job{}, err
	}
	job.Source = model.Source(src)
	job.Location = location.String
	if postedAt.Valid {
		t := postedAt.Time
		job.PostedAt = &t
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		job.UpdatedAt = &t
	}
	return job, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
