// Package history persists SERP analysis runs in a SQLite database so
// keyword rankings can be tracked over time.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pra-ai-team/marketing-agent/internal/serp"
)

// DB wraps the rank-history SQLite database.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the history database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Run is one recorded analysis execution.
type Run struct {
	ID           int64
	ExecutedAt   time.Time
	Location     string
	KeywordCount int
	SuccessCount int
}

// RankEntry is one keyword rank observation.
type RankEntry struct {
	RunID      int64
	ExecutedAt time.Time
	Keyword    string
	Rank       int // 0 means off-page
	TopDomain  string
}

// RecordAnalysis stores an analysis run with every keyword rank and returns
// the run ID.
func (db *DB) RecordAnalysis(analysis *serp.Analysis) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO runs (executed_at, location, keyword_count, success_count)
		VALUES (?, ?, ?, ?)`,
		analysis.ExecutedAt.Format(time.RFC3339), analysis.Location,
		analysis.TotalKeywords, analysis.SuccessCount,
	)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	for _, insight := range analysis.Keywords {
		topDomain := ""
		if len(insight.TopSites) > 0 {
			topDomain = insight.TopSites[0].Domain
		}
		if _, err := tx.Exec(
			`INSERT INTO keyword_ranks (run_id, keyword, own_rank, top_domain)
			VALUES (?, ?, ?, ?)`,
			runID, insight.Keyword, insight.OwnRank, topDomain,
		); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("inserting rank for %q: %w", insight.Keyword, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// Runs returns the most recent analysis runs, newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	rows, err := db.conn.Query(
		`SELECT id, executed_at, location, keyword_count, success_count
		FROM runs ORDER BY executed_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var executedAt string
		if err := rows.Scan(&run.ID, &executedAt, &run.Location, &run.KeywordCount, &run.SuccessCount); err != nil {
			return nil, err
		}
		run.ExecutedAt, _ = time.Parse(time.RFC3339, executedAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// KeywordHistory returns past rank observations for one keyword, newest
// first.
func (db *DB) KeywordHistory(keyword string, limit int) ([]RankEntry, error) {
	rows, err := db.conn.Query(
		`SELECT r.id, r.executed_at, k.keyword, k.own_rank, k.top_domain
		FROM keyword_ranks k JOIN runs r ON r.id = k.run_id
		WHERE k.keyword = ?
		ORDER BY r.executed_at DESC, r.id DESC LIMIT ?`, keyword, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRanks(rows)
}

// RanksForRun returns every keyword rank recorded in one run.
func (db *DB) RanksForRun(runID int64) ([]RankEntry, error) {
	rows, err := db.conn.Query(
		`SELECT r.id, r.executed_at, k.keyword, k.own_rank, k.top_domain
		FROM keyword_ranks k JOIN runs r ON r.id = k.run_id
		WHERE k.run_id = ? ORDER BY k.id`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRanks(rows)
}

func scanRanks(rows *sql.Rows) ([]RankEntry, error) {
	var entries []RankEntry
	for rows.Next() {
		var entry RankEntry
		var executedAt string
		if err := rows.Scan(&entry.RunID, &executedAt, &entry.Keyword, &entry.Rank, &entry.TopDomain); err != nil {
			return nil, err
		}
		entry.ExecutedAt, _ = time.Parse(time.RFC3339, executedAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
