package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tsbridge/internal/classify"
	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// TranspileOptions holds options for the transpile command.
type TranspileOptions struct {
	Target    string
	Out       string
	SourceMap bool
	Minify    bool
}

// NewTranspileCommand creates the transpile command.
func NewTranspileCommand() *cobra.Command {
	opts := &TranspileOptions{}
	cmd := &cobra.Command{
		Use:   "transpile <file>",
		Short: "Strip types from one file without type-checking",
		Long: `Run a single file through the transformer. Types are removed and syntax is
lowered to --target; no type checking happens.`,
		Example: `  tsbridge transpile src/index.ts
  tsbridge transpile src/index.ts --out dist/index.js --sourcemap`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranspile(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", string(tc.TargetES2020), "Output language level")
	cmd.Flags().StringVarP(&opts.Out, "out", "O", "", "Write code to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.SourceMap, "sourcemap", false, "Write <out>.map next to the output (requires --out)")
	cmd.Flags().BoolVar(&opts.Minify, "minify", false, "Minify the output")

	return cmd
}

func runTranspile(cmd *cobra.Command, file string, opts *TranspileOptions) error {
	cmdCtx := NewCommandContext(cmd)

	transformer, ok := cmdCtx.Toolchain.Transformer()
	if !ok {
		return fmt.Errorf("transformer unavailable\nHint: %s", classify.HintFor(classify.PrereqTransformer, cmdCtx.Cfg.Lite))
	}
	if opts.SourceMap && opts.Out == "" {
		return fmt.Errorf("--sourcemap requires --out")
	}

	source, err := os.ReadFile(file) //nolint:gosec // G304: user-selected input file
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	res, err := transformer.Transform(cmd.Context(), source, tc.TransformOptions{
		SourceFile: file,
		Target:     tc.ScriptTarget(opts.Target),
		SourceMap:  opts.SourceMap,
		Minify:     opts.Minify,
	})
	if err != nil {
		return fmt.Errorf("failed to transpile %s: %w", file, err)
	}

	for _, d := range res.Diagnostics {
		tc.Report(cmdCtx.Logger, d)
	}
	if tc.HasErrors(res.Diagnostics) {
		return &tc.FatalError{Kind: tc.FatalCompile, Path: file, Diagnostics: res.Diagnostics}
	}

	if opts.Out == "" {
		_, err = cmd.OutOrStdout().Write(res.Code)
		return err
	}

	if dir := filepath.Dir(opts.Out); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(opts.Out, res.Code, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.Out, err)
	}
	if opts.SourceMap && len(res.Map) > 0 {
		if err := os.WriteFile(opts.Out+".map", res.Map, 0600); err != nil {
			return fmt.Errorf("failed to write source map: %w", err)
		}
	}
	cmdCtx.Logger.Debug("transpiled", "file", file, "out", opts.Out, "bytes", len(res.Code))
	return nil
}
