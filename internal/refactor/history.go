package refactor

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tde/internal/logging"
)

// History is the injected store of apply results. Results are append-only:
// re-applying an opportunity adds a new entry rather than overwriting the
// old one. Implementations must be safe for use from one goroutine; the
// pipeline is single-threaded by design.
type History interface {
	Append(result Result) error
	List() ([]Result, error)
	ListByOpportunity(opportunityID string) ([]Result, error)
	Close() error
}

// MemoryHistory keeps results in process memory; tests inject one per run
type MemoryHistory struct {
	mu      sync.Mutex
	results []Result
}

// NewMemoryHistory creates an empty in-memory history
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

// Append adds one result
func (h *MemoryHistory) Append(result Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, result)
	return nil
}

// List returns every result in append order
func (h *MemoryHistory) List() ([]Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Result(nil), h.results...), nil
}

// ListByOpportunity returns results for one opportunity in append order
func (h *MemoryHistory) ListByOpportunity(opportunityID string) ([]Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var matched []Result
	for _, r := range h.results {
		if r.OpportunityID == opportunityID {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// Close is a no-op for the in-memory store
func (h *MemoryHistory) Close() error { return nil }

// SQLiteHistory persists results so the apply history survives restarts
type SQLiteHistory struct {
	conn   *sql.DB
	logger *logging.Logger
}

// OpenHistory opens or creates the history database at dbPath
func OpenHistory(dbPath string, logger *logging.Logger) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS refactoring_history (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			opportunity_id TEXT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			files_modified TEXT,
			lines_changed INTEGER DEFAULT 0,
			rollback_available INTEGER DEFAULT 0,
			backup_id TEXT,
			error TEXT,
			applied_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_opportunity ON refactoring_history(opportunity_id);
		CREATE INDEX IF NOT EXISTS idx_history_applied_at ON refactoring_history(applied_at);
	`
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}

	return &SQLiteHistory{conn: conn, logger: logger}, nil
}

// Append inserts one result
func (h *SQLiteHistory) Append(result Result) error {
	files, err := json.Marshal(result.FilesModified)
	if err != nil {
		return err
	}

	_, err = h.conn.Exec(`
		INSERT INTO refactoring_history
			(opportunity_id, type, status, files_modified, lines_changed, rollback_available, backup_id, error, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.OpportunityID,
		string(result.Type),
		string(result.Status),
		string(files),
		result.LinesChanged,
		boolToInt(result.RollbackAvailable),
		result.BackupID,
		result.Error,
		result.AppliedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}

	h.logger.Debug("Recorded refactoring result", map[string]interface{}{
		"opportunityId": result.OpportunityID,
		"status":        string(result.Status),
	})
	return nil
}

// List returns every result in append order
func (h *SQLiteHistory) List() ([]Result, error) {
	return h.query(`SELECT opportunity_id, type, status, files_modified, lines_changed,
		rollback_available, backup_id, error, applied_at
		FROM refactoring_history ORDER BY seq`)
}

// ListByOpportunity returns results for one opportunity in append order
func (h *SQLiteHistory) ListByOpportunity(opportunityID string) ([]Result, error) {
	return h.query(`SELECT opportunity_id, type, status, files_modified, lines_changed,
		rollback_available, backup_id, error, applied_at
		FROM refactoring_history WHERE opportunity_id = ? ORDER BY seq`, opportunityID)
}

func (h *SQLiteHistory) query(q string, args ...interface{}) ([]Result, error) {
	rows, err := h.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var files, appliedAt string
		var rollback int
		if err := rows.Scan(&r.OpportunityID, &r.Type, &r.Status, &files,
			&r.LinesChanged, &rollback, &r.BackupID, &r.Error, &appliedAt); err != nil {
			return nil, err
		}
		if files != "" {
			if err := json.Unmarshal([]byte(files), &r.FilesModified); err != nil {
				return nil, err
			}
		}
		r.RollbackAvailable = rollback != 0
		if t, err := time.Parse(time.RFC3339, appliedAt); err == nil {
			r.AppliedAt = t
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the database connection
func (h *SQLiteHistory) Close() error {
	if h.conn != nil {
		return h.conn.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// StatsOf summarizes a result list
func StatsOf(results []Result) Stats {
	stats := Stats{ByType: make(map[OpportunityType]int)}
	for _, r := range results {
		stats.Total++
		stats.ByType[r.Type]++
		stats.TotalLinesChanged += r.LinesChanged
		switch r.Status {
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		case StatusRejected:
			stats.Rejected++
		}
	}
	return stats
}
