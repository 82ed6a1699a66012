package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bittyscout/bittyscout/internal/model"
)

// UpsertResult reports what Upsert did with a posting.
type UpsertResult string

const (
	Inserted UpsertResult = "inserted"
	Updated  UpsertResult = "updated"
)

// SQLiteStore persists job postings in a single SQLite table and owns the
// dedup/idempotency guarantees. All pipeline stages read and write postings
// only through its methods.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the jobs table and its uniqueness constraints exist.
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

	schema := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			job_url                  TEXT PRIMARY KEY,
			platform_source          TEXT NOT NULL DEFAULT '',
			platform_job_id          TEXT NOT NULL DEFAULT '',
			company_name             TEXT NOT NULL DEFAULT '',
			title                    TEXT NOT NULL,
			location                 TEXT NOT NULL DEFAULT '',
			department               TEXT NOT NULL DEFAULT '',
			date_posted_on_platform  TEXT NOT NULL DEFAULT '',
			api_provided_description TEXT NOT NULL DEFAULT '',
			full_description_text    TEXT NOT NULL DEFAULT '',
			first_fetched            DATETIME NOT NULL,
			last_seen                DATETIME NOT NULL,
			is_relevant              BOOLEAN DEFAULT NULL,
			relevance_score          REAL NOT NULL DEFAULT 0.0,
			tags                     TEXT NOT NULL DEFAULT '',
			notified_at              DATETIME DEFAULT NULL
		)`,
		// Secondary uniqueness: partial, since some boards omit stable IDs.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_platform_id
			ON jobs (platform_source, platform_job_id)
			WHERE platform_job_id != ''`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_unclassified
			ON jobs (first_fetched) WHERE is_relevant IS NULL`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating jobs schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Upsert inserts a new posting or refreshes last_seen for a known URL.
// Content fields are first-write-wins: re-ingestion never overwrites the
// originally captured description, location, etc. Safe to call repeatedly
// and concurrently with the same URL.
func (s *SQLiteStore) Upsert(ctx context.Context, data model.PostingData) (UpsertResult, error) {
	if data.JobURL == "" || data.Title == "" {
		return "", fmt.Errorf("upsert %q: %w", data.JobURL, model.ErrInvalidPosting)
	}

	now := time.Now().UTC()

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM jobs WHERE job_url = ?", data.JobURL).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("upserting %s: %w", data.JobURL, err)
	}

	if err == nil {
		// Known URL: refresh last_seen only, content stays as first captured.
		if _, err := s.db.ExecContext(ctx,
			"UPDATE jobs SET last_seen = ? WHERE job_url = ?", now, data.JobURL); err != nil {
			return "", fmt.Errorf("upserting %s: %w", data.JobURL, err)
		}
		return Updated, nil
	}

	// The conflict clause covers the race where a concurrent adapter inserts
	// the same URL between our check and this insert: the loser degrades to a
	// last_seen refresh, so the final row content is order-independent.
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (
			job_url, platform_source, platform_job_id, company_name, title,
			location, department, date_posted_on_platform,
			api_provided_description, full_description_text,
			first_fetched, last_seen
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_url) DO UPDATE SET last_seen = excluded.last_seen`,
		data.JobURL, data.PlatformSource, data.PlatformJobID, data.CompanyName,
		data.Title, data.Location, data.Department, data.DatePosted,
		data.APIDescription, data.FullDescription, now, now,
	); err != nil {
		return "", fmt.Errorf("upserting %s: %w", data.JobURL, err)
	}
	return Inserted, nil
}

// FetchUnclassified returns postings with no relevance decision yet,
// oldest-fetched-first, at most limit rows. limit <= 0 means no bound.
func (s *SQLiteStore) FetchUnclassified(ctx context.Context, limit int) ([]model.JobPosting, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT means unlimited
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		FROM jobs WHERE is_relevant IS NULL
		ORDER BY first_fetched ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching unclassified jobs: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

// RecordClassification sets the decision/score/tags triple exactly once.
// A second call for the same URL returns model.ErrAlreadyClassified and
// leaves the stored decision untouched.
func (s *SQLiteStore) RecordClassification(ctx context.Context, jobURL string, decision model.Decision, score float64, tags []string) error {
	if decision == model.DecisionUnknown {
		return fmt.Errorf("classifying %s: decision must be known", jobURL)
	}

	model.SortTags(tags)
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET is_relevant = ?, relevance_score = ?, tags = ?
		WHERE job_url = ? AND is_relevant IS NULL`,
		decision == model.DecisionRelevant, score, strings.Join(tags, ","), jobURL,
	)
	if err != nil {
		return fmt.Errorf("classifying %s: %w", jobURL, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("classifying %s: %w", jobURL, err)
	}
	if n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT 1 FROM jobs WHERE job_url = ?", jobURL,
		).Scan(&exists); err == sql.ErrNoRows {
			return fmt.Errorf("classifying %s: posting not found", jobURL)
		} else if err != nil {
			return fmt.Errorf("classifying %s: %w", jobURL, err)
		}
		return fmt.Errorf("classifying %s: %w", jobURL, model.ErrAlreadyClassified)
	}
	return nil
}

// FetchRelevantUnnotified returns relevant postings not yet notified,
// best score first, ties broken by most recently fetched.
func (s *SQLiteStore) FetchRelevantUnnotified(ctx context.Context) ([]model.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		FROM jobs WHERE is_relevant = 1 AND notified_at IS NULL
		ORDER BY relevance_score DESC, first_fetched DESC`)
	if err != nil {
		return nil, fmt.Errorf("fetching relevant unnotified jobs: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

// MarkNotified stamps notified_at for exactly the given URLs. No-op on an
// empty set. Already-notified rows keep their original timestamp.
func (s *SQLiteStore) MarkNotified(ctx context.Context, jobURLs []string) error {
	if len(jobURLs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(jobURLs)-1) + "?"
	args := make([]any, 0, len(jobURLs)+1)
	args = append(args, time.Now().UTC())
	for _, u := range jobURLs {
		args = append(args, u)
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET notified_at = ?
		 WHERE job_url IN (`+placeholders+`) AND notified_at IS NULL`, args...)
	if err != nil {
		return fmt.Errorf("marking %d jobs notified: %w", len(jobURLs), err)
	}
	return nil
}

// FetchClassified returns decided postings, best score first, for the
// review UI. limit <= 0 means no bound.
func (s *SQLiteStore) FetchClassified(ctx context.Context, limit int) ([]model.JobPosting, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		FROM jobs WHERE is_relevant IS NOT NULL
		ORDER BY relevance_score DESC, first_fetched DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching classified jobs: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

// Counts holds diagnostic aggregates for run summaries. Not correctness
// critical: callers treat a zero-valued Counts as "unavailable".
type Counts struct {
	Total        int
	Unclassified int
	Relevant     int
	Notified     int
}

// Stats returns table-level aggregates for run summaries.
func (s *SQLiteStore) Stats(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_relevant IS NULL),
		       COUNT(*) FILTER (WHERE is_relevant = 1),
		       COUNT(*) FILTER (WHERE notified_at IS NOT NULL)
		FROM jobs`).Scan(&c.Total, &c.Unclassified, &c.Relevant, &c.Notified)
	if err != nil {
		return Counts{}, fmt.Errorf("reading job stats: %w", err)
	}
	return c, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const selectColumns = `
	SELECT job_url, platform_source, platform_job_id, company_name, title,
	       location, department, date_posted_on_platform,
	       api_provided_description, full_description_text,
	       first_fetched, last_seen, is_relevant, relevance_score, tags,
	       notified_at`

func scanPostings(rows *sql.Rows) ([]model.JobPosting, error) {
	var out []model.JobPosting
	for rows.Next() {
		var (
			p          model.JobPosting
			isRelevant sql.NullBool
			tags       string
			notifiedAt sql.NullTime
		)
		if err := rows.Scan(
			&p.JobURL, &p.PlatformSource, &p.PlatformJobID, &p.CompanyName,
			&p.Title, &p.Location, &p.Department, &p.DatePosted,
			&p.APIDescription, &p.FullDescription,
			&p.FirstFetched, &p.LastSeen, &isRelevant, &p.Score, &tags,
			&notifiedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}

		switch {
		case !isRelevant.Valid:
			p.Decision = model.DecisionUnknown
		case isRelevant.Bool:
			p.Decision = model.DecisionRelevant
		default:
			p.Decision = model.DecisionNotRelevant
		}
		if tags != "" {
			p.Tags = strings.Split(tags, ",")
		}
		if notifiedAt.Valid {
			t := notifiedAt.Time
			p.NotifiedAt = &t
		}

		out = append(out, p)
	}
	return out, rows.Err()
}
