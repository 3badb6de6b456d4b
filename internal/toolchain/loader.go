// Package toolchain loads the optional compiler and transformer providers
// once per process and exposes them as read-only handles.
package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// Default provider names.
const (
	DefaultCompiler    = "tsc"
	DefaultTransformer = "esbuild"
)

// Config holds loader configuration.
type Config struct {
	ProjectRoot  string
	Compiler     string // registered compiler name, default "tsc"
	CompilerPath string // explicit compiler location, empty to search
	Transformer  string // registered transformer name, default "esbuild"
	Host         tc.Host
	Logger       *slog.Logger
}

// Loader acquires the two optional providers exactly once.
type Loader struct {
	cfg    Config
	logger *slog.Logger

	once        sync.Once
	compiler    Handle[tc.Compiler]
	transformer Handle[tc.Transformer]
}

// New creates a loader. Nothing is acquired until Preload runs.
func New(cfg Config) *Loader {
	if cfg.Compiler == "" {
		cfg.Compiler = DefaultCompiler
	}
	if cfg.Transformer == "" {
		cfg.Transformer = DefaultTransformer
	}
	if cfg.Host == nil {
		cfg.Host = tc.StaticHost(false)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{cfg: cfg, logger: logger}
}

// Preload attempts to acquire both providers concurrently and waits for
// both. It never fails: a missing, incompatible or panicking provider
// leaves its handle absent. In lite mode nothing is attempted and both
// handles stay unset. Calls after the first are no-ops.
func (l *Loader) Preload(ctx context.Context) {
	l.once.Do(func() {
		if l.cfg.Host.Lite() {
			l.logger.Debug("lite runtime, skipping toolchain preload")
			return
		}

		req := tc.AcquireRequest{
			ProjectRoot: l.cfg.ProjectRoot,
			Logger:      l.logger,
		}

		var g errgroup.Group
		g.Go(func() error {
			c, err := safely(l.cfg.Compiler, func() (tc.Compiler, error) {
				acquire, err := tc.LookupCompiler(l.cfg.Compiler)
				if err != nil {
					return nil, err
				}
				creq := req
				creq.Path = l.cfg.CompilerPath
				return acquire(ctx, creq)
			})
			l.record("compiler", l.cfg.Compiler, err)
			l.compiler.set(c, err == nil && c != nil)
			return nil
		})
		g.Go(func() error {
			t, err := safely(l.cfg.Transformer, func() (tc.Transformer, error) {
				acquire, err := tc.LookupTransformer(l.cfg.Transformer)
				if err != nil {
					return nil, err
				}
				return acquire(ctx, req)
			})
			l.record("transformer", l.cfg.Transformer, err)
			l.transformer.set(t, err == nil && t != nil)
			return nil
		})
		_ = g.Wait()
	})
}

// safely runs an acquisition, converting a panic into an error.
func safely[T any](name string, fn func() (T, error)) (provider T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			provider, err = zero, fmt.Errorf("provider %s panicked: %v", name, r)
		}
	}()
	return fn()
}

func (l *Loader) record(kind, name string, err error) {
	if err != nil {
		l.logger.Debug("provider unavailable", "kind", kind, "name", name, "reason", err)
		return
	}
	l.logger.Debug("provider loaded", "kind", kind, "name", name)
}

// Compiler returns the compiler provider when it is available.
func (l *Loader) Compiler() (tc.Compiler, bool) {
	return l.compiler.Get()
}

// Transformer returns the transformer provider when it is available.
func (l *Loader) Transformer() (tc.Transformer, bool) {
	return l.transformer.Get()
}

// CompilerState reports the compiler handle state.
func (l *Loader) CompilerState() HandleState {
	return l.compiler.State()
}

// TransformerState reports the transformer handle state.
func (l *Loader) TransformerState() HandleState {
	return l.transformer.State()
}

// ProjectRoot returns the root the loader was configured with.
func (l *Loader) ProjectRoot() string {
	return l.cfg.ProjectRoot
}

var defaultLoader struct {
	once sync.Once
	l    *Loader
}

// Init configures the process-wide loader. Only the first call has effect;
// later calls return the loader created by the first.
func Init(cfg Config) *Loader {
	defaultLoader.once.Do(func() {
		defaultLoader.l = New(cfg)
	})
	return defaultLoader.l
}

// Default returns the process-wide loader, creating it with default
// settings if Init has not been called.
func Default() *Loader {
	return Init(Config{})
}
