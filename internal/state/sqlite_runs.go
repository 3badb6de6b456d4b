package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const runColumns = `id, project_root, compiler, compiler_version, status, started_at,
	completed_at, sources, emitted, errors, warnings, error`

// CreateRun records the start of an emit.
func (s *SQLiteStore) CreateRun(projectRoot, compiler, compilerVersion string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:              generateID(),
		ProjectRoot:     projectRoot,
		Compiler:        compiler,
		CompilerVersion: compilerVersion,
		Status:          RunStatusRunning,
		StartedAt:       time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("project", projectRoot))

	_, err := s.db.Exec(
		`INSERT INTO emit_runs (id, project_root, compiler, compiler_version, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.ProjectRoot, run.Compiler, run.CompilerVersion, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status and counters.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, stats Stats, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errValue sql.NullString
	if errMsg != "" {
		errValue = sql.NullString{String: errMsg, Valid: true}
	}

	res, err := s.db.Exec(
		`UPDATE emit_runs
		 SET status = ?, completed_at = ?, sources = ?, emitted = ?, errors = ?, warnings = ?, error = ?
		 WHERE id = ?`,
		string(status), time.Now().UTC(), stats.Sources, stats.Emitted, stats.Errors, stats.Warnings, errValue, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(`SELECT `+runColumns+` FROM emit_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs for a project, newest first.
// An empty projectRoot lists runs for every project.
func (s *SQLiteStore) ListRuns(projectRoot string, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM emit_runs
		 WHERE ? = '' OR project_root = ?
		 ORDER BY started_at DESC
		 LIMIT ?`,
		projectRoot, projectRoot, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var status string
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(
		&run.ID, &run.ProjectRoot, &run.Compiler, &run.CompilerVersion, &status, &run.StartedAt,
		&completedAt, &run.Sources, &run.Emitted, &run.Errors, &run.Warnings, &errMsg,
	)
	if err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}
