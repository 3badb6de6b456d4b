package toolchain

import (
	"fmt"
	"strings"
)

// Category classifies a diagnostic by severity.
type Category int

// Diagnostic categories, in the order compilers usually report them.
const (
	CategoryError Category = iota
	CategoryWarning
	CategoryMessage
	CategorySuggestion
)

// Categories lists every category, useful for exhaustive iteration.
var Categories = []Category{CategoryError, CategoryWarning, CategoryMessage, CategorySuggestion}

func (c Category) String() string {
	switch c {
	case CategoryError:
		return "error"
	case CategoryWarning:
		return "warning"
	case CategoryMessage:
		return "message"
	case CategorySuggestion:
		return "suggestion"
	default:
		return "unknown"
	}
}

// ParseCategory maps a compiler's category label to a Category.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(s) {
	case "error":
		return CategoryError, true
	case "warning":
		return CategoryWarning, true
	case "message":
		return CategoryMessage, true
	case "suggestion":
		return CategorySuggestion, true
	}
	return CategoryError, false
}

// Location is a position inside a source file.
// Line and Character are 0-based, as compilers report them internally.
type Location struct {
	File      string
	Line      int
	Character int
}

// MessageChain is a diagnostic message with optional nested detail.
type MessageChain struct {
	Text string
	Next []MessageChain
}

// Diagnostic is a single message produced while parsing, checking or emitting.
type Diagnostic struct {
	Category Category
	Code     int
	Location *Location // nil for global diagnostics
	Message  MessageChain
}

// NewDiagnostic creates a diagnostic with a single-line message.
func NewDiagnostic(cat Category, code int, loc *Location, text string) Diagnostic {
	return Diagnostic{
		Category: cat,
		Code:     code,
		Location: loc,
		Message:  MessageChain{Text: text},
	}
}

// FlattenMessage joins a message chain with newlines. Nested entries are
// indented two spaces per level.
func FlattenMessage(chain MessageChain) string {
	var sb strings.Builder
	flattenInto(&sb, chain, 0)
	return sb.String()
}

func flattenInto(sb *strings.Builder, chain MessageChain, depth int) {
	if depth > 0 {
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat("  ", depth))
	}
	sb.WriteString(chain.Text)
	for _, next := range chain.Next {
		flattenInto(sb, next, depth+1)
	}
}

// FormatDiagnostic renders a diagnostic as "<file> (<line>,<col>): <message>"
// with 1-based line and column, or as the bare message when it has no
// location.
func FormatDiagnostic(d Diagnostic) string {
	msg := FlattenMessage(d.Message)
	if d.Location == nil || d.Location.File == "" {
		return msg
	}
	return fmt.Sprintf("%s (%d,%d): %s", d.Location.File, d.Location.Line+1, d.Location.Character+1, msg)
}

// CountByCategory tallies diagnostics per category.
func CountByCategory(diags []Diagnostic) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, d := range diags {
		counts[d.Category]++
	}
	return counts
}

// Report formats d and sends it to the sink channel for its category:
// errors to Error, warnings to Warn, messages and suggestions to Info.
func Report(sink Sink, d Diagnostic) {
	msg := FormatDiagnostic(d)
	switch d.Category {
	case CategoryError:
		sink.Error(msg)
	case CategoryWarning:
		sink.Warn(msg)
	case CategoryMessage, CategorySuggestion:
		sink.Info(msg)
	default:
		sink.Error(msg)
	}
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Category == CategoryError {
			return true
		}
	}
	return false
}
