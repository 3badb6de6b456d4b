package tsc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// tsc exit statuses.
const (
	exitSuccess        = 0
	exitOutputsSkipped = 1
	exitWithDiagnostic = 2
)

// Program is a generated tsconfig describing one compilation.
type Program struct {
	compiler   *Compiler
	dir        string
	configPath string
	preEmit    []tc.Diagnostic
}

// CreateProgram implements toolchain.Compiler. It writes rootNames and opts
// to a temporary tsconfig.json; Close removes it. A program without root
// files never runs tsc, which rejects an empty "files" list.
func (c *Compiler) CreateProgram(_ context.Context, rootNames []string, opts tc.OptionSet) (tc.Program, error) {
	if len(rootNames) == 0 {
		return &Program{compiler: c}, nil
	}

	dir, err := os.MkdirTemp("", "tsbridge-")
	if err != nil {
		return nil, fmt.Errorf("failed to create program directory: %w", err)
	}

	files := make([]string, len(rootNames))
	for i, name := range rootNames {
		files[i] = resolvePath(name, c.root)
	}
	data, err := json.MarshalIndent(map[string]any{
		"compilerOptions": opts,
		"files":           files,
	}, "", "  ")
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to encode program options: %w", err)
	}

	configPath := filepath.Join(dir, tc.ConfigFileName)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to write program config: %w", err)
	}
	return &Program{compiler: c, dir: dir, configPath: configPath}, nil
}

// PreEmitDiagnostics implements toolchain.Program by running a check-only
// compilation. emitDeclarationOnly is switched off for this run because tsc
// rejects it together with noEmit.
func (p *Program) PreEmitDiagnostics(ctx context.Context) ([]tc.Diagnostic, error) {
	if p.empty() {
		return nil, nil
	}
	out, code, err := p.compiler.run(ctx, "-p", p.configPath, "--pretty", "false",
		"--noEmit", "--emitDeclarationOnly", "false")
	if err != nil {
		return nil, err
	}
	if code != exitSuccess && code != exitOutputsSkipped && code != exitWithDiagnostic {
		return nil, fmt.Errorf("tsc exited with status %d: %s", code, strings.TrimSpace(string(out)))
	}
	diags, _ := parseOutput(out)
	p.preEmit = diags
	return diags, nil
}

// Emit implements toolchain.Program. Diagnostics already returned by
// PreEmitDiagnostics are not repeated.
func (p *Program) Emit(ctx context.Context, opts tc.EmitOptions) (*tc.EmitResult, error) {
	if p.empty() {
		return &tc.EmitResult{}, nil
	}
	args := []string{"-p", p.configPath, "--pretty", "false", "--listEmittedFiles"}
	if opts.DeclarationsOnly {
		args = append(args, "--declaration", "--emitDeclarationOnly")
	}
	out, code, err := p.compiler.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	diags, emitted := parseOutput(out)
	result := &tc.EmitResult{
		EmitSkipped:  code == exitOutputsSkipped,
		Diagnostics:  subtract(diags, p.preEmit),
		EmittedFiles: emitted,
	}
	switch code {
	case exitSuccess, exitOutputsSkipped, exitWithDiagnostic:
		return result, nil
	default:
		return nil, fmt.Errorf("tsc exited with status %d: %s", code, strings.TrimSpace(string(out)))
	}
}

// Close removes the generated config.
func (p *Program) Close() error {
	if p.empty() {
		return nil
	}
	return os.RemoveAll(p.dir)
}

func (p *Program) empty() bool {
	return p.configPath == ""
}

// subtract returns the diagnostics in all that are not in seen.
func subtract(all, seen []tc.Diagnostic) []tc.Diagnostic {
	known := make(map[string]int, len(seen))
	for _, d := range seen {
		known[diagKey(d)]++
	}
	var out []tc.Diagnostic
	for _, d := range all {
		k := diagKey(d)
		if known[k] > 0 {
			known[k]--
			continue
		}
		out = append(out, d)
	}
	return out
}

func diagKey(d tc.Diagnostic) string {
	return strconv.Itoa(d.Code) + "|" + tc.FormatDiagnostic(d)
}

var (
	diagLine  = regexp.MustCompile(`^(?:(.+)\((\d+),(\d+)\): )?(error|warning|message|suggestion) TS(\d+): (.*)$`)
	emitLine  = regexp.MustCompile(`^TSFILE: (.+)$`)
	chainLine = regexp.MustCompile(`^((?:  )+)(.*)$`)
)

// parseOutput reads "--pretty false" output: one line per diagnostic,
// nested message text on following lines indented two spaces per level,
// and "TSFILE:" lines for emitted files.
func parseOutput(out []byte) ([]tc.Diagnostic, []string) {
	var diags []tc.Diagnostic
	var emitted []string
	// stack of pointers into the current diagnostic's chain, by depth
	var stack []*tc.MessageChain

	lines := strings.Split(strings.ReplaceAll(string(out), "\r\n", "\n"), "\n")
	for _, line := range lines {
		if m := emitLine.FindStringSubmatch(line); m != nil {
			emitted = append(emitted, strings.TrimSpace(m[1]))
			stack = nil
			continue
		}
		if m := diagLine.FindStringSubmatch(line); m != nil {
			diags = append(diags, newDiagnostic(m))
			stack = []*tc.MessageChain{&diags[len(diags)-1].Message}
			continue
		}
		if m := chainLine.FindStringSubmatch(line); m != nil && len(stack) > 0 {
			depth := len(m[1]) / 2
			if depth > len(stack) {
				depth = len(stack)
			}
			parent := stack[depth-1]
			parent.Next = append(parent.Next, tc.MessageChain{Text: m[2]})
			stack = append(stack[:depth], &parent.Next[len(parent.Next)-1])
		}
	}
	return diags, emitted
}

func newDiagnostic(m []string) tc.Diagnostic {
	cat, _ := tc.ParseCategory(m[4])
	code, _ := strconv.Atoi(m[5])
	d := tc.Diagnostic{
		Category: cat,
		Code:     code,
		Message:  tc.MessageChain{Text: m[6]},
	}
	if m[1] != "" {
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		d.Location = &tc.Location{File: m[1], Line: line - 1, Character: col - 1}
	}
	return d
}
