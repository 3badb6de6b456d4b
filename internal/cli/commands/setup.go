package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tsbridge/internal/classify"
	"github.com/leapstack-labs/tsbridge/internal/cli/config"
	"github.com/leapstack-labs/tsbridge/internal/cli/output"
	"github.com/leapstack-labs/tsbridge/internal/emit"
	"github.com/leapstack-labs/tsbridge/internal/state"
	"github.com/leapstack-labs/tsbridge/internal/toolchain"
)

// Toolchain yields the loaded provider handles. *toolchain.Loader
// satisfies it.
type Toolchain = classify.Providers

// toolchainKey is used to store the provider handles in context.
type toolchainKey struct{}

// WithToolchain returns a copy of ctx carrying tcs. Commands fall back to
// the process-wide loader when none is stored.
func WithToolchain(ctx context.Context, tcs Toolchain) context.Context {
	return context.WithValue(ctx, toolchainKey{}, tcs)
}

func toolchainFrom(ctx context.Context) Toolchain {
	if tcs, ok := ctx.Value(toolchainKey{}).(Toolchain); ok && tcs != nil {
		return tcs
	}
	return toolchain.Default()
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Toolchain Toolchain
	Renderer  *output.Renderer
}

// NewCommandContext collects the config, logger, providers and renderer
// installed by the root command.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := getConfig(ctx)
	mode, err := output.ParseMode(cfg.OutputFormat)
	if err != nil {
		mode = output.ModeAuto
	}
	return &CommandContext{
		Cfg:       cfg,
		Logger:    config.GetLogger(ctx),
		Toolchain: toolchainFrom(ctx),
		Renderer:  output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}
}

// Emitter creates a declaration emitter for the project.
func (c *CommandContext) Emitter() *emit.Emitter {
	return emit.New(emit.Config{
		Root:      c.Cfg.ProjectRoot,
		Compilers: c.Toolchain,
		Sink:      c.Logger,
	})
}

// Classifier creates a project classifier.
func (c *CommandContext) Classifier() *classify.Classifier {
	return classify.New(c.Cfg.ProjectRoot, nil, c.Toolchain)
}

// OpenStore opens the emit history store, creating its directory.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	stateDir := filepath.Dir(c.Cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return state.OpenAndMigrate(c.Cfg.StatePath, c.Logger)
}

// getConfig returns the loaded configuration, or defaults rooted at the
// working directory when the root command did not run.
func getConfig(ctx context.Context) *config.Config {
	if cfg := config.FromContext(ctx); cfg != nil {
		return cfg
	}
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &config.Config{
		ProjectDir:   cwd,
		ProjectRoot:  cwd,
		Compiler:     config.DefaultCompiler,
		Transformer:  config.DefaultTransformer,
		StatePath:    filepath.Join(cwd, config.DefaultStateFile),
		OutputFormat: config.DefaultOutput,
		History:      true,
	}
}
