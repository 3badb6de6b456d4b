package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

var fakeTargets = map[string]tc.ScriptTarget{
	"es5":    tc.TargetES5,
	"es2015": tc.TargetES2015,
	"es2020": tc.TargetES2020,
	"es2022": tc.TargetES2022,
	"esnext": tc.TargetESNext,
}

var fakePathOptions = []string{tc.OptRootDir, tc.OptOutDir, tc.OptDeclarationDir, tc.OptBaseURL}

// FakeCompiler is an in-memory compiler provider. Zero-value fields fall
// back to strict JSON parsing, a small option normalizer and an empty
// program.
type FakeCompiler struct {
	// Files is returned by ReadDirectory.
	Files []string
	// PreEmit and EmitDiags are reported by the programs it creates.
	PreEmit   []tc.Diagnostic
	EmitDiags []tc.Diagnostic
	Skipped   bool
	// ConvertErrors is appended to every ConvertCompilerOptions result.
	ConvertErrors []tc.Diagnostic
	// CreateErr fails CreateProgram.
	CreateErr error
	// OnEmit, when set, runs at the start of every Emit call.
	OnEmit func()

	mu          sync.Mutex
	lastOptions tc.OptionSet
	lastRoots   []string
	readRoot    string
	readExts    []string
	emitOpts    []tc.EmitOptions
}

// Name implements toolchain.Compiler.
func (f *FakeCompiler) Name() string { return "fake" }

// Version implements toolchain.Compiler.
func (f *FakeCompiler) Version() string { return "0.0.0-test" }

// ParseConfigText decodes text as strict JSON.
func (f *FakeCompiler) ParseConfigText(fileName string, text []byte) (*tc.ParsedConfig, *tc.Diagnostic) {
	var raw map[string]any
	if err := json.Unmarshal(text, &raw); err != nil {
		d := tc.NewDiagnostic(tc.CategoryError, 1005, &tc.Location{File: fileName}, err.Error())
		return nil, &d
	}
	return &tc.ParsedConfig{Raw: raw}, nil
}

// ConvertCompilerOptions normalizes targets and resolves path options.
func (f *FakeCompiler) ConvertCompilerOptions(raw map[string]any, basePath string) (tc.OptionSet, []tc.Diagnostic) {
	out := make(tc.OptionSet, len(raw))
	var diags []tc.Diagnostic
	for k, v := range raw {
		out[k] = v
	}
	if s, ok := raw[tc.OptTarget].(string); ok {
		if t, ok := fakeTargets[strings.ToLower(s)]; ok {
			out[tc.OptTarget] = t
		} else {
			diags = append(diags, tc.NewDiagnostic(tc.CategoryError, 6046, nil, fmt.Sprintf("Argument for '--target' option must be a valid target, got %q.", s)))
		}
	}
	for _, key := range fakePathOptions {
		if s, ok := raw[key].(string); ok && !filepath.IsAbs(s) {
			out[key] = filepath.Join(basePath, s)
		}
	}
	diags = append(diags, f.ConvertErrors...)
	return out, diags
}

// ReadDirectory returns Files and records the request.
func (f *FakeCompiler) ReadDirectory(root string, extensions []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readRoot = root
	f.readExts = append([]string(nil), extensions...)
	return append([]string(nil), f.Files...), nil
}

// CreateProgram records its inputs and returns a canned program.
func (f *FakeCompiler) CreateProgram(_ context.Context, rootNames []string, opts tc.OptionSet) (tc.Program, error) {
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.mu.Lock()
	f.lastOptions = opts.Clone()
	f.lastRoots = append([]string(nil), rootNames...)
	f.mu.Unlock()
	return &fakeProgram{compiler: f}, nil
}

// LastOptions returns the options passed to the latest CreateProgram call.
func (f *FakeCompiler) LastOptions() tc.OptionSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOptions
}

// LastRoots returns the root names passed to the latest CreateProgram call.
func (f *FakeCompiler) LastRoots() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRoots
}

// LastRead returns the arguments of the latest ReadDirectory call.
func (f *FakeCompiler) LastRead() (string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readRoot, f.readExts
}

// EmitCalls returns the options of every Emit call.
func (f *FakeCompiler) EmitCalls() []tc.EmitOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tc.EmitOptions(nil), f.emitOpts...)
}

type fakeProgram struct {
	compiler *FakeCompiler
}

func (p *fakeProgram) PreEmitDiagnostics(context.Context) ([]tc.Diagnostic, error) {
	return p.compiler.PreEmit, nil
}

func (p *fakeProgram) Emit(_ context.Context, opts tc.EmitOptions) (*tc.EmitResult, error) {
	if p.compiler.OnEmit != nil {
		p.compiler.OnEmit()
	}
	p.compiler.mu.Lock()
	defer p.compiler.mu.Unlock()
	p.compiler.emitOpts = append(p.compiler.emitOpts, opts)

	var emitted []string
	if !p.compiler.Skipped {
		outDir := p.compiler.lastOptions.String(tc.OptOutDir)
		for _, f := range p.compiler.lastRoots {
			base := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
			emitted = append(emitted, filepath.Join(outDir, base+".d.ts"))
		}
	}
	return &tc.EmitResult{
		EmitSkipped:  p.compiler.Skipped,
		Diagnostics:  p.compiler.EmitDiags,
		EmittedFiles: emitted,
	}, nil
}

// FakeTransformer echoes its input, or fails with Err.
type FakeTransformer struct {
	Err error
}

// Name implements toolchain.Transformer.
func (f *FakeTransformer) Name() string { return "fake" }

// Transform implements toolchain.Transformer.
func (f *FakeTransformer) Transform(_ context.Context, source []byte, _ tc.TransformOptions) (*tc.TransformResult, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &tc.TransformResult{Code: append([]byte(nil), source...)}, nil
}

// Providers is a fixed provider source for components that read handles.
// A nil field reports the provider as unavailable.
type Providers struct {
	C tc.Compiler
	T tc.Transformer
}

// Compiler reports C.
func (p Providers) Compiler() (tc.Compiler, bool) { return p.C, p.C != nil }

// Transformer reports T.
func (p Providers) Transformer() (tc.Transformer, bool) { return p.T, p.T != nil }
