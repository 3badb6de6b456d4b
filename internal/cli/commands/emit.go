package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/tsbridge/internal/cli/output"
	"github.com/leapstack-labs/tsbridge/internal/emit"
	"github.com/leapstack-labs/tsbridge/internal/state"
	"github.com/leapstack-labs/tsbridge/internal/ui"
	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// EmitOptions holds options for the emit command.
type EmitOptions struct {
	Watch    bool
	OutDir   string
	Set      []string
	Debounce time.Duration
	Serve    string
}

// NewEmitCommand creates the emit command.
func NewEmitCommand() *cobra.Command {
	opts := &EmitOptions{}
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Type-check the project and write declaration files",
		Long: `Compile the .js and .ts files under src/ and write their .d.ts
declarations to dist/.

Compiler options are layered: built-in defaults, then the project's
tsconfig.json, then compiler_options from tsbridge.yaml, then --set and
--out-dir. Incremental compilation is always disabled.

Every diagnostic is logged. If the compiler skips emission the command
exits with status 1.`,
		Example: `  # Emit declarations once
  tsbridge emit

  # Rebuild on every change
  tsbridge emit --watch

  # Rebuild on change and show status at http://localhost:7420
  tsbridge emit --watch --serve localhost:7420

  # Override compiler options
  tsbridge emit --set strict=true --set target=ES2020 --out-dir types`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEmit(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-emit when sources or tsconfig.json change")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "Declaration output directory (relative to the project root)")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "Override a compiler option (key=value, repeatable)")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", emit.DefaultDebounce, "Quiet period before re-emitting in watch mode")
	cmd.Flags().StringVar(&opts.Serve, "serve", "", "Serve a live status page on this address (requires --watch)")

	return cmd
}

// EmitOutput is the JSON output for the emit command.
type EmitOutput struct {
	Sources     int      `json:"sources"`
	Emitted     []string `json:"emitted"`
	Errors      int      `json:"errors"`
	Warnings    int      `json:"warnings"`
	Skipped     bool     `json:"skipped"`
	DurationMS  int64    `json:"duration_ms"`
	Diagnostics []string `json:"diagnostics"`
}

func runEmit(cmd *cobra.Command, opts *EmitOptions) error {
	cmdCtx := NewCommandContext(cmd)
	if opts.Serve != "" && !opts.Watch {
		return fmt.Errorf("--serve requires --watch")
	}

	raw, err := rawOverrides(cmdCtx.Cfg.CompilerOptions, opts)
	if err != nil {
		return err
	}
	overrides, err := resolveOverrides(cmdCtx, raw)
	if err != nil {
		return err
	}

	emitter := cmdCtx.Emitter()
	history := openHistory(cmdCtx)
	defer history.close()

	if !opts.Watch {
		run := history.start()
		res, err := emitter.EmitDeclarations(cmd.Context(), overrides)
		history.finish(run, res, err)
		if res != nil {
			if rerr := renderEmit(cmdCtx.Renderer, res); rerr != nil {
				return rerr
			}
		}
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var server *ui.Server
	if opts.Serve != "" {
		server = ui.NewServer(ui.Config{
			Addr:     opts.Serve,
			Project:  cmdCtx.Cfg.ProjectRoot,
			Compiler: compilerName(cmdCtx.Toolchain),
			Store:    history.store,
			Logger:   cmdCtx.Logger,
		})
	}

	cmdCtx.Logger.Info("watching for changes", "project", cmdCtx.Cfg.ProjectRoot)
	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	if server != nil {
		g.Go(func() error { return server.Serve(gctx) })
	}
	g.Go(func() error {
		defer cancel()
		return emitter.Watch(gctx, overrides, opts.Debounce, func(res *emit.Result, err error) {
			// each emit in watch mode records its own run
			history.finish(history.start(), res, err)
			if server != nil {
				server.Publish(res, err)
			}
			if res != nil {
				_ = renderEmit(cmdCtx.Renderer, res)
			}
			if err != nil && !tc.IsFatal(err) {
				cmdCtx.Logger.Error("emit failed", "error", err)
			}
		})
	})
	return g.Wait()
}

func compilerName(tcs Toolchain) string {
	if c, ok := tcs.Compiler(); ok {
		return c.Name() + " " + c.Version()
	}
	return ""
}

// rawOverrides collects compiler_options from tsbridge.yaml, --set pairs
// and --out-dir, in increasing precedence.
func rawOverrides(fromConfig map[string]any, opts *EmitOptions) (map[string]any, error) {
	raw := make(map[string]any, len(fromConfig)+len(opts.Set)+1)
	for k, v := range fromConfig {
		raw[k] = v
	}
	for _, pair := range opts.Set {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", pair)
		}
		raw[key] = parseOptionValue(strings.TrimSpace(value))
	}
	if opts.OutDir != "" {
		raw[tc.OptOutDir] = opts.OutDir
	}
	return raw, nil
}

// parseOptionValue reads a --set value the way it would appear in
// tsconfig.json: booleans, numbers, JSON arrays and objects, else a string.
func parseOptionValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}
	return s
}

// resolveOverrides normalizes raw overrides with the compiler, resolving
// relative paths against the project root.
func resolveOverrides(cmdCtx *CommandContext, raw map[string]any) (tc.OptionSet, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	compiler, ok := cmdCtx.Toolchain.Compiler()
	if !ok {
		return nil, tc.ErrCompilerUnavailable
	}
	opts, diags := compiler.ConvertCompilerOptions(raw, cmdCtx.Cfg.ProjectRoot)
	for _, d := range diags {
		tc.Report(cmdCtx.Logger, d)
	}
	if tc.HasErrors(diags) {
		return nil, &tc.FatalError{Kind: tc.FatalConfig, Path: "compiler option overrides", Diagnostics: diags}
	}
	return opts, nil
}

func renderEmit(r *output.Renderer, res *emit.Result) error {
	errs := res.Counts[tc.CategoryError]
	warns := res.Counts[tc.CategoryWarning]

	if r.EffectiveMode() == output.ModeJSON {
		out := EmitOutput{
			Sources:     len(res.Sources),
			Emitted:     res.EmittedFiles,
			Errors:      errs,
			Warnings:    warns,
			Skipped:     res.Skipped,
			DurationMS:  res.Duration.Milliseconds(),
			Diagnostics: make([]string, 0, len(res.Diagnostics)),
		}
		if out.Emitted == nil {
			out.Emitted = []string{}
		}
		for _, d := range res.Diagnostics {
			out.Diagnostics = append(out.Diagnostics, tc.FormatDiagnostic(d))
		}
		return r.JSON(out)
	}

	if res.Skipped {
		r.Error(fmt.Sprintf("Emit skipped: %d error(s), %d warning(s)", errs, warns))
		return nil
	}
	r.Success(fmt.Sprintf("Emitted %d declaration file(s) from %d source(s) in %s",
		len(res.EmittedFiles), len(res.Sources), res.Duration.Round(time.Millisecond)))
	if errs > 0 || warns > 0 {
		r.Printf("  %d error(s), %d warning(s)\n", errs, warns)
	}
	return nil
}

// historyRecorder writes emit runs to the state store. Failures are
// logged and never affect the emit itself.
type historyRecorder struct {
	cmdCtx *CommandContext
	store  state.Store
}

func openHistory(cmdCtx *CommandContext) *historyRecorder {
	h := &historyRecorder{cmdCtx: cmdCtx}
	if !cmdCtx.Cfg.History {
		return h
	}
	store, err := cmdCtx.OpenStore()
	if err != nil {
		cmdCtx.Logger.Warn("emit history disabled", "error", err)
		return h
	}
	h.store = store
	return h
}

func (h *historyRecorder) start() *state.Run {
	if h.store == nil {
		return nil
	}
	name, version := "", ""
	if c, ok := h.cmdCtx.Toolchain.Compiler(); ok {
		name, version = c.Name(), c.Version()
	}
	run, err := h.store.CreateRun(h.cmdCtx.Cfg.ProjectRoot, name, version)
	if err != nil {
		h.cmdCtx.Logger.Warn("failed to record emit", "error", err)
		return nil
	}
	return run
}

func (h *historyRecorder) finish(run *state.Run, res *emit.Result, emitErr error) {
	if h.store == nil || run == nil {
		return
	}
	var stats state.Stats
	if res != nil {
		stats = state.Stats{
			Sources:  len(res.Sources),
			Emitted:  len(res.EmittedFiles),
			Errors:   res.Counts[tc.CategoryError],
			Warnings: res.Counts[tc.CategoryWarning],
		}
	}
	status, msg := state.RunStatusSucceeded, ""
	if emitErr != nil {
		status, msg = state.RunStatusFailed, emitErr.Error()
	}
	if err := h.store.CompleteRun(run.ID, status, stats, msg); err != nil {
		h.cmdCtx.Logger.Warn("failed to record emit", "error", err)
	}
}

func (h *historyRecorder) close() {
	if h.store != nil {
		_ = h.store.Close()
	}
}
