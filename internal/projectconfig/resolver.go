// Package projectconfig reads tsconfig.json and normalizes its compiler
// options through the compiler provider.
package projectconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// CompilerSource yields the compiler provider when it is available.
// *toolchain.Loader satisfies it.
type CompilerSource interface {
	Compiler() (tc.Compiler, bool)
}

// Config holds resolver dependencies.
type Config struct {
	// Root is the project root directory.
	Root string
	// FS reads files relative to Root. Defaults to os.DirFS(Root).
	FS        fs.FS
	Compilers CompilerSource
	Sink      tc.Sink
}

// Resolver loads the project configuration file on every call.
type Resolver struct {
	root      string
	fsys      fs.FS
	compilers CompilerSource
	sink      tc.Sink
}

// New creates a resolver.
func New(cfg Config) *Resolver {
	root := cfg.Root
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	fsys := cfg.FS
	if fsys == nil {
		fsys = os.DirFS(root)
	}
	sink := cfg.Sink
	if sink == nil {
		sink = slog.New(slog.DiscardHandler)
	}
	return &Resolver{root: root, fsys: fsys, compilers: cfg.Compilers, sink: sink}
}

// Root returns the absolute project root.
func (r *Resolver) Root() string {
	return r.root
}

// ConfigPath returns the absolute path of the configuration file.
func (r *Resolver) ConfigPath() string {
	return filepath.Join(r.root, tc.ConfigFileName)
}

// Exists reports whether the configuration file is present.
func (r *Resolver) Exists() bool {
	return Exists(r.fsys)
}

// Exists reports whether fsys holds a regular configuration file at its root.
func Exists(fsys fs.FS) bool {
	info, err := fs.Stat(fsys, tc.ConfigFileName)
	return err == nil && !info.IsDir()
}

// ResolveOptions reads the configuration file and returns its normalized
// compiler options. Relative paths in the file resolve against the file's
// directory. Unreadable, malformed or invalid configuration is reported
// through the sink and returned as a *toolchain.FatalError.
func (r *Resolver) ResolveOptions() (tc.OptionSet, error) {
	if r.compilers == nil {
		return nil, tc.ErrCompilerUnavailable
	}
	compiler, ok := r.compilers.Compiler()
	if !ok {
		return nil, tc.ErrCompilerUnavailable
	}

	path := r.ConfigPath()
	text, err := fs.ReadFile(r.fsys, tc.ConfigFileName)
	if err != nil {
		msg := fmt.Sprintf("Cannot read file '%s'.", path)
		if errors.Is(err, fs.ErrNotExist) {
			msg = fmt.Sprintf("Cannot find a tsconfig.json file at '%s'.", r.root)
		}
		d := tc.NewDiagnostic(tc.CategoryError, 5083, nil, msg)
		return nil, r.fatal(path, []tc.Diagnostic{d}, err)
	}

	parsed, diag := compiler.ParseConfigText(path, text)
	if diag != nil {
		return nil, r.fatal(path, []tc.Diagnostic{*diag}, nil)
	}

	opts, diags := compiler.ConvertCompilerOptions(parsed.CompilerOptions(), filepath.Dir(path))
	if tc.HasErrors(diags) {
		return nil, r.fatal(path, diags, nil)
	}
	for _, d := range diags {
		tc.Report(r.sink, d)
	}

	return opts, nil
}

func (r *Resolver) fatal(path string, diags []tc.Diagnostic, cause error) error {
	for _, d := range diags {
		tc.Report(r.sink, d)
	}
	return &tc.FatalError{
		Kind:        tc.FatalConfig,
		Path:        path,
		Diagnostics: diags,
		Err:         cause,
	}
}
