// Package emit drives the compiler provider to write declaration files for
// a project's source tree and reports its diagnostics.
package emit

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/tsbridge/internal/projectconfig"
	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// Conventional project layout.
const (
	SourceDir = "src"
	OutputDir = "dist"
)

// SourceExtensions are the file extensions compiled from SourceDir.
var SourceExtensions = []string{".js", ".ts"}

// Config holds emitter dependencies.
type Config struct {
	// Root is the project root directory.
	Root string
	// FS reads the project configuration file. Defaults to os.DirFS(Root).
	FS        fs.FS
	Compilers projectconfig.CompilerSource
	Sink      tc.Sink
}

// Emitter writes declaration artifacts for one project.
type Emitter struct {
	root      string
	compilers projectconfig.CompilerSource
	resolver  *projectconfig.Resolver
	sink      tc.Sink
}

// Result summarizes one emission.
type Result struct {
	Sources      []string
	EmittedFiles []string
	Diagnostics  []tc.Diagnostic
	Counts       map[tc.Category]int
	Skipped      bool
	Options      tc.OptionSet
	Duration     time.Duration
}

// New creates an emitter.
func New(cfg Config) *Emitter {
	sink := cfg.Sink
	if sink == nil {
		sink = slog.New(slog.DiscardHandler)
	}
	resolver := projectconfig.New(projectconfig.Config{
		Root:      cfg.Root,
		FS:        cfg.FS,
		Compilers: cfg.Compilers,
		Sink:      sink,
	})
	return &Emitter{
		root:      resolver.Root(),
		compilers: cfg.Compilers,
		resolver:  resolver,
		sink:      sink,
	}
}

// DefaultOptions returns the fixed emitter defaults for a project root.
func DefaultOptions(root string) tc.OptionSet {
	return tc.OptionSet{
		tc.OptTarget:              tc.TargetLatest,
		tc.OptRootDir:             filepath.Join(root, SourceDir),
		tc.OptOutDir:              filepath.Join(root, OutputDir),
		tc.OptDeclaration:         true,
		tc.OptEmitDeclarationOnly: true,
		tc.OptModule:              tc.ModuleNodeNext,
		tc.OptModuleResolution:    tc.ResolutionNodeNext,
		tc.OptAllowJS:             true,
		tc.OptCheckJS:             true,
		tc.OptSkipLibCheck:        true,
	}
}

// EffectiveOptions merges the defaults, the project's tsconfig.json options
// when the file exists, and overrides, in increasing precedence. Incremental
// mode is always off in the result.
func (e *Emitter) EffectiveOptions(overrides tc.OptionSet) (tc.OptionSet, error) {
	opts := DefaultOptions(e.root)
	if e.resolver.Exists() {
		fromFile, err := e.resolver.ResolveOptions()
		if err != nil {
			return nil, err
		}
		opts = opts.Merge(fromFile)
	}
	return opts.Merge(overrides).WithoutIncremental(), nil
}

// EmitDeclarations compiles the sources under SourceDir and writes their
// declaration files.
//
// The compiler provider must be available: callers run the loader's
// Preload first and get toolchain.ErrCompilerUnavailable otherwise. Every
// diagnostic is reported through the sink before EmitDeclarations returns.
// When the compiler skips emission it returns the result together with a
// *toolchain.FatalError.
func (e *Emitter) EmitDeclarations(ctx context.Context, overrides tc.OptionSet) (*Result, error) {
	if e.compilers == nil {
		return nil, tc.ErrCompilerUnavailable
	}
	compiler, ok := e.compilers.Compiler()
	if !ok {
		return nil, tc.ErrCompilerUnavailable
	}

	start := time.Now()
	opts, err := e.EffectiveOptions(overrides)
	if err != nil {
		return nil, err
	}

	srcDir := filepath.Join(e.root, SourceDir)
	sources, err := compiler.ReadDirectory(srcDir, SourceExtensions)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources in %s: %w", srcDir, err)
	}
	e.sink.Debug("emitting declarations", "compiler", compiler.Name(), "sources", len(sources), "outDir", opts.String(tc.OptOutDir))

	program, err := compiler.CreateProgram(ctx, sources, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}
	if closer, ok := program.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	preEmit, err := program.PreEmitDiagnostics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect diagnostics: %w", err)
	}
	emitted, err := program.Emit(ctx, tc.EmitOptions{DeclarationsOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to emit declarations: %w", err)
	}

	// Pre-emit diagnostics come first.
	diags := make([]tc.Diagnostic, 0, len(preEmit)+len(emitted.Diagnostics))
	diags = append(diags, preEmit...)
	diags = append(diags, emitted.Diagnostics...)

	for _, d := range diags {
		tc.Report(e.sink, d)
	}

	result := &Result{
		Sources:      sources,
		EmittedFiles: emitted.EmittedFiles,
		Diagnostics:  diags,
		Counts:       tc.CountByCategory(diags),
		Skipped:      emitted.EmitSkipped,
		Options:      opts,
		Duration:     time.Since(start),
	}

	if emitted.EmitSkipped {
		return result, &tc.FatalError{
			Kind:        tc.FatalCompile,
			Path:        e.root,
			Diagnostics: diags,
		}
	}

	e.sink.Debug("declarations emitted", "files", len(result.EmittedFiles), "duration", result.Duration)
	return result, nil
}
