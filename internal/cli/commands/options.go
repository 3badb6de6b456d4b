package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewOptionsCommand creates the options command.
func NewOptionsCommand() *cobra.Command {
	var format string
	emitOpts := &EmitOptions{}

	cmd := &cobra.Command{
		Use:   "options",
		Short: "Print the effective compiler options",
		Long: `Print the compiler options emit would use: built-in defaults merged with
the project's tsconfig.json and any overrides, with incremental mode off.`,
		Example: `  tsbridge options
  tsbridge options --format json --set strict=true`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)

			raw, err := rawOverrides(cmdCtx.Cfg.CompilerOptions, emitOpts)
			if err != nil {
				return err
			}
			overrides, err := resolveOverrides(cmdCtx, raw)
			if err != nil {
				return err
			}
			opts, err := cmdCtx.Emitter().EffectiveOptions(overrides)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(opts)
			case "yaml", "":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(map[string]any(opts)); err != nil {
					return fmt.Errorf("failed to encode options: %w", err)
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q (want yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml, json")
	cmd.Flags().StringArrayVar(&emitOpts.Set, "set", nil, "Override a compiler option (key=value, repeatable)")
	cmd.Flags().StringVar(&emitOpts.OutDir, "out-dir", "", "Declaration output directory")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
