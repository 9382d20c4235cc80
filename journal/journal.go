// Package journal keeps a SQLite history of export runs and their per-image results.
package journal

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bucketcrop/logging"
	"bucketcrop/types"

	_ "github.com/mattn/go-sqlite3"
)

// Run statuses
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RunInfo describes an export run when it starts
type RunInfo struct {
	SessionPath  string
	SourceFolder string
	OutputDir    string
	Engine       string
	Total        int
}

// RunSummary is one row of the run history
type RunSummary struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	OutputDir  string
	Engine     string
	Status     string
	Total      int
	Success    int
	Failed     int
	Skipped    int
	Error      string
}

// RunStats aggregates every recorded run
type RunStats struct {
	Runs          int
	TotalImages   int
	Exported      int
	Failed        int
	Skipped       int
	Companions    int
	DistinctFiles int
}

// InitDatabase opens dbPath and creates the journal tables if needed
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		session_path TEXT,
		source_folder TEXT,
		output_dir TEXT NOT NULL,
		engine TEXT,
		status TEXT NOT NULL,
		total INTEGER DEFAULT 0,
		success INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		error TEXT
	);
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		idx INTEGER NOT NULL,
		path TEXT NOT NULL,
		filename TEXT,
		bucket TEXT,
		output_path TEXT,
		width INTEGER,
		height INTEGER,
		status TEXT NOT NULL,
		error TEXT,
		companions INTEGER DEFAULT 0,
		UNIQUE(run_id, idx)
	);
	CREATE INDEX IF NOT EXISTS idx_items_run ON items(run_id);
	CREATE INDEX IF NOT EXISTS idx_items_path ON items(path);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create journal schema: %w", err)
	}

	// Journals written before companions were tracked lack the column
	var hasCompanionsColumn bool
	err = db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('items') WHERE name='companions'").Scan(&hasCompanionsColumn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error checking for companions column: %w", err)
	}
	if !hasCompanionsColumn {
		if _, err := db.Exec("ALTER TABLE items ADD COLUMN companions INTEGER DEFAULT 0;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("error adding companions column: %w", err)
		}
		logging.DebugLog("Added 'companions' column to existing journal schema")
	}

	return db, nil
}

// OpenDatabase opens an existing journal
func OpenDatabase(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath)
}

// Recorder writes the items of one run as they finish
type Recorder struct {
	db    *sql.DB
	runID int64
	stmt  *sql.Stmt
}

// StartRun inserts a running row for info and prepares the item statement
func StartRun(db *sql.DB, info RunInfo) (*Recorder, error) {
	res, err := db.Exec(`
		INSERT INTO runs (started_at, session_path, source_folder, output_dir, engine, status, total)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), info.SessionPath, info.SourceFolder, info.OutputDir,
		info.Engine, RunRunning, info.Total)
	if err != nil {
		return nil, fmt.Errorf("cannot record run start: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("cannot read run id: %w", err)
	}

	stmt, err := db.Prepare(`
		INSERT OR REPLACE INTO items (
			run_id, idx, path, filename, bucket, output_path, width, height, status, error, companions
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		err = fmt.Errorf("cannot prepare item statement: %w", err)
		if _, uerr := db.Exec(`UPDATE runs SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
			time.Now().UTC().Format(time.RFC3339Nano), RunFailed, err.Error(), runID); uerr != nil {
			logging.LogWarning("Cannot close run %d after failed start: %v", runID, uerr)
		}
		return nil, err
	}

	return &Recorder{db: db, runID: runID, stmt: stmt}, nil
}

// RunID returns the id of the run being recorded
func (r *Recorder) RunID() int64 {
	return r.runID
}

// Record stores one item result
func (r *Recorder) Record(item types.ItemResult) error {
	var errText sql.NullString
	if item.Err != nil {
		errText = sql.NullString{String: item.Err.Error(), Valid: true}
	}

	_, err := r.stmt.Exec(
		r.runID,
		item.Index,
		item.Path,
		item.Filename,
		string(item.Bucket),
		item.OutputPath,
		item.Target.Width,
		item.Target.Height,
		string(item.Status),
		errText,
		len(item.Companions),
	)
	if err != nil {
		return fmt.Errorf("cannot record item %s: %w", item.Path, err)
	}
	return nil
}

// Finish stores the outcome counters and closes the recorder.
// runErr is the error returned by the export, if any.
func (r *Recorder) Finish(outcome types.ExportOutcome, runErr error) error {
	defer r.stmt.Close()

	status := RunCompleted
	var errText sql.NullString
	if runErr != nil {
		status = RunFailed
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	_, err := r.db.Exec(`
		UPDATE runs SET finished_at = ?, status = ?, total = ?, success = ?, failed = ?, skipped = ?, error = ?
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), status, outcome.Total, outcome.Success, outcome.Failed,
		outcome.Skipped, errText, r.runID)
	if err != nil {
		return fmt.Errorf("cannot record run %d outcome: %w", r.runID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func ListRuns(db *sql.DB, limit int) ([]RunSummary, error) {
	rows, err := db.Query(`
		SELECT id, started_at, COALESCE(finished_at, ''), output_dir, COALESCE(engine, ''), status,
			total, success, failed, skipped, COALESCE(error, '')
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var started, finished string
		if err := rows.Scan(&run.ID, &started, &finished, &run.OutputDir, &run.Engine, &run.Status,
			&run.Total, &run.Success, &run.Failed, &run.Skipped, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to read run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FailedItems returns the "filename: error" lines of one run in input order
func FailedItems(db *sql.DB, runID int64) ([]string, error) {
	rows, err := db.Query(`
		SELECT filename, COALESCE(error, '') FROM items
		WHERE run_id = ? AND status = ? ORDER BY idx`, runID, string(types.StatusFailed))
	if err != nil {
		return nil, fmt.Errorf("failed to query failed items: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var filename, msg string
		if err := rows.Scan(&filename, &msg); err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf("%s: %s", filename, msg))
	}
	return lines, rows.Err()
}

// GetRunStats retrieves totals over every recorded run
func GetRunStats(db *sql.DB) (*RunStats, error) {
	var stats RunStats

	err := db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(total), 0), COALESCE(SUM(success), 0),
			COALESCE(SUM(failed), 0), COALESCE(SUM(skipped), 0)
		FROM runs`).Scan(&stats.Runs, &stats.TotalImages, &stats.Exported, &stats.Failed, &stats.Skipped)
	if err != nil {
		return nil, fmt.Errorf("failed to get run totals: %w", err)
	}

	err = db.QueryRow(`
		SELECT COALESCE(SUM(companions), 0), COUNT(DISTINCT CASE WHEN status = ? THEN path END)
		FROM items`, string(types.StatusSuccess)).Scan(&stats.Companions, &stats.DistinctFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to get item totals: %w", err)
	}

	return &stats, nil
}

// FormatRun renders a run as one history line
func FormatRun(run RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %-9s %d total, %d exported, %d failed, %d skipped -> %s",
		run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Status,
		run.Total, run.Success, run.Failed, run.Skipped, run.OutputDir)
	if run.Engine != "" {
		fmt.Fprintf(&b, " [%s]", run.Engine)
	}
	if run.Error != "" {
		fmt.Fprintf(&b, " (%s)", run.Error)
	}
	return b.String()
}
