package testutil

import (
	"fmt"
	"sync"
)

// Level names recorded by RecordingSink.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Entry is one message captured by RecordingSink.
type Entry struct {
	Level string
	Msg   string
	Args  []any
}

// RecordingSink captures leveled messages in arrival order.
// It satisfies toolchain.Sink.
type RecordingSink struct {
	mu      sync.Mutex
	entries []Entry
	// OnEntry, when set, is called after each entry is recorded.
	OnEntry func(Entry)
}

func (s *RecordingSink) record(level, msg string, args []any) {
	e := Entry{Level: level, Msg: msg, Args: args}
	s.mu.Lock()
	s.entries = append(s.entries, e)
	hook := s.OnEntry
	s.mu.Unlock()
	if hook != nil {
		hook(e)
	}
}

// Debug records a debug message.
func (s *RecordingSink) Debug(msg string, args ...any) { s.record(LevelDebug, msg, args) }

// Info records an informational message.
func (s *RecordingSink) Info(msg string, args ...any) { s.record(LevelInfo, msg, args) }

// Warn records a warning.
func (s *RecordingSink) Warn(msg string, args ...any) { s.record(LevelWarn, msg, args) }

// Error records an error.
func (s *RecordingSink) Error(msg string, args ...any) { s.record(LevelError, msg, args) }

// Entries returns a copy of everything recorded so far.
func (s *RecordingSink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Messages returns the messages recorded at level.
func (s *RecordingSink) Messages(level string) []string {
	var out []string
	for _, e := range s.Entries() {
		if e.Level == level {
			out = append(out, e.Msg)
		}
	}
	return out
}

// String renders the recorded entries one per line, for failure output.
func (s *RecordingSink) String() string {
	var out string
	for _, e := range s.Entries() {
		out += fmt.Sprintf("[%s] %s\n", e.Level, e.Msg)
	}
	return out
}
