// Package status provides the live emit status page.
package status

import (
	"time"

	"github.com/leapstack-labs/tsbridge/internal/emit"
	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// Status is one emit as shown on the page and returned by /api/status.
type Status struct {
	Project     string       `json:"project"`
	Compiler    string       `json:"compiler,omitempty"`
	At          time.Time    `json:"at"`
	OK          bool         `json:"ok"`
	Skipped     bool         `json:"skipped"`
	Sources     int          `json:"sources"`
	Emitted     []string     `json:"emitted"`
	Errors      int          `json:"errors"`
	Warnings    int          `json:"warnings"`
	DurationMS  int64        `json:"duration_ms"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Error       string       `json:"error,omitempty"`
}

// Diagnostic is a formatted compiler diagnostic.
type Diagnostic struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// FromResult builds a Status from one emit. res may be nil when the emit
// failed before compiling.
func FromResult(project, compiler string, res *emit.Result, err error) Status {
	s := Status{
		Project:     project,
		Compiler:    compiler,
		At:          time.Now(),
		OK:          err == nil,
		Emitted:     []string{},
		Diagnostics: []Diagnostic{},
	}
	if err != nil {
		s.Error = err.Error()
	}
	if res == nil {
		return s
	}
	s.Skipped = res.Skipped
	s.Sources = len(res.Sources)
	s.Emitted = append(s.Emitted, res.EmittedFiles...)
	s.Errors = res.Counts[tc.CategoryError]
	s.Warnings = res.Counts[tc.CategoryWarning]
	s.DurationMS = res.Duration.Milliseconds()
	for _, d := range res.Diagnostics {
		s.Diagnostics = append(s.Diagnostics, Diagnostic{
			Category: d.Category.String(),
			Text:     tc.FormatDiagnostic(d),
		})
	}
	return s
}
