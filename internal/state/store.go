// Package state records declaration emit runs in SQLite so that
// `tsbridge history` can report on past builds.
package state

import "time"

// RunStatus is the lifecycle state of an emit run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded emit.
type Run struct {
	ID              string
	ProjectRoot     string
	Compiler        string
	CompilerVersion string
	Status          RunStatus
	StartedAt       time.Time
	CompletedAt     *time.Time
	Error           string
	Stats
}

// Stats are the counters filled in when a run completes.
type Stats struct {
	Sources  int
	Emitted  int
	Errors   int
	Warnings int
}

// Duration is the wall time of a completed run, or zero while running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Store persists emit runs.
type Store interface {
	CreateRun(projectRoot, compiler, compilerVersion string) (*Run, error)
	CompleteRun(id string, status RunStatus, stats Stats, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(projectRoot string, limit int) ([]*Run, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
