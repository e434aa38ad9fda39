package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joescharf/sumgate/internal/lifecycle"
	"github.com/joescharf/sumgate/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors under concurrent callers.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// boolToInt converts a bool to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Documents ---

func (s *SQLiteStore) CreateDocument(ctx context.Context, d *models.Document) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, content_type, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.ContentType, d.Text, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	d := &models.Document{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, content_type, text, created_at FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &d.ContentType, &d.Text, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, content_type, text, created_at FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*models.Document
	for rows.Next() {
		d := &models.Document{}
		if err := rows.Scan(&d.ID, &d.Name, &d.ContentType, &d.Text, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// --- Review records ---

const recordColumns = `id, document_id, candidate_id, candidate_text, candidate_model, candidate_attempt, generated_at,
	state, score, coverage, clarity, language, flagged_too_short, flagged_uncertain, matched_keywords, hedge_terms,
	reviewed_by, feedback, regenerated_from, created_at, decided_at`

func (s *SQLiteStore) CreateRecord(ctx context.Context, rec *models.ReviewRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	score, coverage, clarity, language, tooShort, uncertain, keywords, hedges := reportFields(rec.Report)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO review_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.DocumentID,
		rec.Candidate.ID, rec.Candidate.Text, rec.Candidate.Model, rec.Candidate.Attempt, rec.Candidate.GeneratedAt,
		string(rec.State), score, coverage, clarity, language, tooShort, uncertain, keywords, hedges,
		rec.ReviewedBy, rec.Feedback, rec.RegeneratedFrom, rec.CreatedAt, rec.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("create review record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*models.ReviewRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM review_records WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review record not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get review record: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]*models.ReviewRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM review_records WHERE 1=1`
	var args []any

	if filter.DocumentID != "" {
		query += ` AND document_id = ?`
		args = append(args, filter.DocumentID)
	}
	if filter.State != "" {
		query += ` AND state = ?`
		args = append(args, string(filter.State))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list review records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*models.ReviewRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateRecord persists rec with a compare-and-swap on the state
// column. If the stored state no longer equals expect, the update is
// not applied and lifecycle.ErrStaleState is returned.
func (s *SQLiteStore) UpdateRecord(ctx context.Context, rec *models.ReviewRecord, expect models.ReviewState) error {
	score, coverage, clarity, language, tooShort, uncertain, keywords, hedges := reportFields(rec.Report)

	result, err := s.db.ExecContext(ctx,
		`UPDATE review_records SET state=?, score=?, coverage=?, clarity=?, language=?,
			flagged_too_short=?, flagged_uncertain=?, matched_keywords=?, hedge_terms=?,
			reviewed_by=?, feedback=?, decided_at=?
		WHERE id=? AND state=?`,
		string(rec.State), score, coverage, clarity, language,
		tooShort, uncertain, keywords, hedges,
		rec.ReviewedBy, rec.Feedback, rec.DecidedAt,
		rec.ID, string(expect),
	)
	if err != nil {
		return fmt.Errorf("update review record: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		// Distinguish a lost CAS race from a missing row.
		var count int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM review_records WHERE id = ?`, rec.ID).Scan(&count); err != nil {
			return fmt.Errorf("update review record: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("review record not found: %s", rec.ID)
		}
		return lifecycle.ErrStaleState
	}
	return nil
}

// --- Terminal snapshot destinations ---

// Finalize writes an immutable snapshot of a terminal record to the
// destination matching its state.
func (s *SQLiteStore) Finalize(ctx context.Context, rec *models.ReviewRecord, sourceText string) error {
	if rec.Report == nil {
		return fmt.Errorf("finalize record %s: no quality report", rec.ID)
	}
	now := time.Now().UTC()

	switch rec.State {
	case models.StateApproved:
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO approved_summaries
			(id, original_text, summary, score, flagged_uncertain, flagged_too_short, approved_by, feedback, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, sourceText, rec.Candidate.Text, rec.Report.Score,
			boolToInt(rec.Report.FlaggedUncertain), boolToInt(rec.Report.FlaggedTooShort),
			rec.ReviewedBy, nullString(rec.Feedback), now,
		)
		if err != nil {
			return fmt.Errorf("finalize approved summary: %w", err)
		}
		return nil
	case models.StateRejected:
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO rejected_summaries
			(id, original_text, rejected_summary, score, flagged_uncertain, flagged_too_short, feedback, rejected_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, sourceText, rec.Candidate.Text, rec.Report.Score,
			boolToInt(rec.Report.FlaggedUncertain), boolToInt(rec.Report.FlaggedTooShort),
			rec.Feedback, rec.ReviewedBy, now,
		)
		if err != nil {
			return fmt.Errorf("finalize rejected summary: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("finalize record %s: state %s is not terminal", rec.ID, rec.State)
	}
}

func (s *SQLiteStore) ListApproved(ctx context.Context) ([]*Snapshot, error) {
	return s.listSnapshots(ctx,
		`SELECT id, original_text, summary, score, flagged_uncertain, flagged_too_short, approved_by, COALESCE(feedback, ''), created_at
		FROM approved_summaries ORDER BY created_at DESC`)
}

func (s *SQLiteStore) ListRejected(ctx context.Context) ([]*Snapshot, error) {
	return s.listSnapshots(ctx,
		`SELECT id, original_text, rejected_summary, score, flagged_uncertain, flagged_too_short, rejected_by, feedback, created_at
		FROM rejected_summaries ORDER BY created_at DESC`)
}

func (s *SQLiteStore) listSnapshots(ctx context.Context, query string) ([]*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		if err := rows.Scan(&snap.ID, &snap.OriginalText, &snap.Summary, &snap.Score,
			&snap.FlaggedUncertain, &snap.FlaggedTooShort,
			&snap.Reviewer, &snap.Feedback, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// --- scan helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.ReviewRecord, error) {
	rec := &models.ReviewRecord{}
	var state string
	var score, coverage, clarity, language sql.NullInt64
	var tooShort, uncertain sql.NullBool
	var keywordsJSON, hedgesJSON string
	var decidedAt sql.NullTime

	if err := row.Scan(&rec.ID, &rec.DocumentID,
		&rec.Candidate.ID, &rec.Candidate.Text, &rec.Candidate.Model, &rec.Candidate.Attempt, &rec.Candidate.GeneratedAt,
		&state, &score, &coverage, &clarity, &language, &tooShort, &uncertain, &keywordsJSON, &hedgesJSON,
		&rec.ReviewedBy, &rec.Feedback, &rec.RegeneratedFrom, &rec.CreatedAt, &decidedAt); err != nil {
		return nil, err
	}

	rec.State = models.ReviewState(state)
	if decidedAt.Valid {
		rec.DecidedAt = &decidedAt.Time
	}

	// A NULL score means the record was never scored.
	if score.Valid {
		report := &models.QualityReport{
			Score:            int(score.Int64),
			Coverage:         int(coverage.Int64),
			Clarity:          int(clarity.Int64),
			Language:         int(language.Int64),
			FlaggedTooShort:  tooShort.Bool,
			FlaggedUncertain: uncertain.Bool,
		}
		_ = json.Unmarshal([]byte(keywordsJSON), &report.MatchedKeywords)
		_ = json.Unmarshal([]byte(hedgesJSON), &report.HedgeTerms)
		rec.Report = report
	}

	return rec, nil
}

// reportFields flattens an optional report into insert/update
// arguments. A nil report produces NULL score columns.
func reportFields(r *models.QualityReport) (score, coverage, clarity, language, tooShort, uncertain any, keywords, hedges string) {
	keywords, hedges = "[]", "[]"
	if r == nil {
		return nil, nil, nil, nil, nil, nil, keywords, hedges
	}

	if b, err := json.Marshal(r.MatchedKeywords); err == nil {
		keywords = string(b)
	}
	if b, err := json.Marshal(r.HedgeTerms); err == nil {
		hedges = string(b)
	}
	return r.Score, r.Coverage, r.Clarity, r.Language,
		boolToInt(r.FlaggedTooShort), boolToInt(r.FlaggedUncertain), keywords, hedges
}

// nullString maps "" to NULL for optional text columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
