package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS questions (
	id          TEXT PRIMARY KEY,
	stem        TEXT NOT NULL,
	option_a    TEXT NOT NULL,
	option_b    TEXT NOT NULL,
	option_c    TEXT NOT NULL,
	option_d    TEXT NOT NULL,
	option_e    TEXT NOT NULL,
	correct     TEXT NOT NULL,
	topics      TEXT NOT NULL,
	year        INTEGER NOT NULL DEFAULT 0,
	cohort      TEXT NOT NULL DEFAULT '',
	rationale   TEXT NOT NULL DEFAULT '',
	confidence  REAL NOT NULL DEFAULT 0,
	status      TEXT NOT NULL DEFAULT 'unverified',
	model       TEXT NOT NULL DEFAULT '',
	document    TEXT NOT NULL DEFAULT '',
	page        INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_stem ON questions(stem);
CREATE INDEX IF NOT EXISTS idx_questions_status ON questions(status);

CREATE TABLE IF NOT EXISTS topics (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS cohorts (
	label TEXT PRIMARY KEY
);
`

// SQLiteStore is the durable corpus backed by a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the corpus database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus database: %w", err)
	}
	// Single writer: the extraction worker is sequential.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize corpus schema: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.seedVocabulary(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// seedVocabulary inserts the default controlled vocabulary on first run.
func (s *SQLiteStore) seedVocabulary() error {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM topics`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count topics: %w", err)
	}
	if n == 0 {
		for _, t := range DefaultTopics {
			if _, err := s.db.Exec(`INSERT OR IGNORE INTO topics (name) VALUES (?)`, t); err != nil {
				return fmt.Errorf("failed to seed topics: %w", err)
			}
		}
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM cohorts`).Scan(&n); err != nil {
		return fmt.Errorf("failed to count cohorts: %w", err)
	}
	if n == 0 {
		for _, c := range DefaultCohorts {
			if _, err := s.db.Exec(`INSERT OR IGNORE INTO cohorts (label) VALUES (?)`, c); err != nil {
				return fmt.Errorf("failed to seed cohorts: %w", err)
			}
		}
	}
	return nil
}

func (s *SQLiteStore) FindSimilar(ctx context.Context, stemPrefix string, limit int) ([]*Question, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := likeEscape(strings.TrimSpace(stemPrefix)) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stem, option_a, option_b, option_c, option_d, option_e,
		       correct, topics, year, cohort, rationale, confidence, status,
		       model, document, page, created_at, updated_at
		FROM questions
		WHERE stem LIKE ? ESCAPE '\'
		LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}
	defer rows.Close()

	var out []*Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, q *Question) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now
	if q.Status == "" {
		q.Status = StatusUnverified
	}

	topics, err := json.Marshal(q.Topics)
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO questions
			(id, stem, option_a, option_b, option_c, option_d, option_e,
			 correct, topics, year, cohort, rationale, confidence, status,
			 model, document, page, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		q.ID, q.Stem, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.OptionE,
		q.Correct, string(topics), q.Year, q.Cohort, q.Rationale, q.Confidence,
		string(q.Status), q.Model, q.Document, q.Page,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, q *Question) error {
	now := time.Now().UTC()
	topics, err := json.Marshal(q.Topics)
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}

	status := string(q.Status)
	res, err := s.db.ExecContext(ctx, `
		UPDATE questions SET
			stem = ?, option_a = ?, option_b = ?, option_c = ?, option_d = ?,
			option_e = ?, correct = ?, topics = ?, year = ?, cohort = ?,
			rationale = ?, confidence = ?,
			status = COALESCE(NULLIF(?, ''), status),
			model = ?, document = ?, page = ?, updated_at = ?
		WHERE id = ?`,
		q.Stem, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.OptionE,
		q.Correct, string(topics), q.Year, q.Cohort, q.Rationale, q.Confidence,
		status, q.Model, q.Document, q.Page, now.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("question %s not found", id)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context, f Filter) (int, error) {
	query := `SELECT COUNT(*) FROM questions WHERE 1=1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.Cohort != "" {
		query += ` AND cohort = ?`
		args = append(args, f.Cohort)
	}
	if f.Topic != "" {
		// Topics are stored as a JSON array of strings.
		query += ` AND topics LIKE ? ESCAPE '\'`
		args = append(args, `%"`+likeEscape(f.Topic)+`"%`)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus: make(map[string]int),
		ByCohort: make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("stats query failed: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM questions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("stats query failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cohortRows, err := s.db.QueryContext(ctx, `SELECT cohort, COUNT(*) FROM questions GROUP BY cohort`)
	if err != nil {
		return nil, fmt.Errorf("stats query failed: %w", err)
	}
	defer cohortRows.Close()
	for cohortRows.Next() {
		var cohort string
		var n int
		if err := cohortRows.Scan(&cohort, &n); err != nil {
			return nil, err
		}
		stats.ByCohort[cohort] = n
	}
	return stats, cohortRows.Err()
}

func (s *SQLiteStore) Topics(ctx context.Context) ([]string, error) {
	return s.listVocab(ctx, `SELECT name FROM topics ORDER BY name`)
}

func (s *SQLiteStore) Cohorts(ctx context.Context) ([]string, error) {
	return s.listVocab(ctx, `SELECT label FROM cohorts ORDER BY label`)
}

func (s *SQLiteStore) listVocab(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vocabulary query failed: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(r rowScanner) (*Question, error) {
	var q Question
	var topics, status, createdAt, updatedAt string
	err := r.Scan(&q.ID, &q.Stem, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
		&q.OptionE, &q.Correct, &topics, &q.Year, &q.Cohort, &q.Rationale,
		&q.Confidence, &status, &q.Model, &q.Document, &q.Page, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan question: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &q.Topics); err != nil {
		return nil, fmt.Errorf("failed to decode topics for %s: %w", q.ID, err)
	}
	q.Status = VerificationStatus(status)
	q.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	q.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &q, nil
}

func likeEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
