// Package cli provides the command-line interface for tsbridge.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tsbridge/internal/classify"
	"github.com/leapstack-labs/tsbridge/internal/cli/commands"
	"github.com/leapstack-labs/tsbridge/internal/cli/config"
	"github.com/leapstack-labs/tsbridge/internal/cli/output"
	"github.com/leapstack-labs/tsbridge/internal/toolchain"
	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"

	// Register the built-in providers.
	_ "github.com/leapstack-labs/tsbridge/internal/providers/esbuild"
	_ "github.com/leapstack-labs/tsbridge/internal/providers/tsc"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Commands that never touch the toolchain skip the preload.
var skipPreload = map[string]bool{
	"help":       true,
	"completion": true,
	"__complete": true,
	"version":    true,
	"init":       true,
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tsbridge",
		Short: "tsbridge - TypeScript declaration builds for JavaScript projects",
		Long: `tsbridge type-checks the .js and .ts sources of a project and writes their
.d.ts declaration files.

The TypeScript compiler and the esbuild transformer are optional: when one
cannot be loaded, the commands that need it report what is missing instead
of failing at startup.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			mode, _ := output.ParseMode(cfg.OutputFormat)
			logger := output.NewLogger(cmd.ErrOrStderr(), mode, cfg.Verbose)

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}

			if !skipPreload[cmd.Name()] {
				loader := toolchain.Init(toolchain.Config{
					ProjectRoot:  cfg.ProjectRoot,
					Compiler:     cfg.Compiler,
					CompilerPath: cfg.CompilerPath,
					Transformer:  cfg.Transformer,
					Host:         tc.StaticHost(cfg.Lite),
					Logger:       logger,
				})
				loader.Preload(ctx)
				ctx = commands.WithToolchain(ctx, loader)
			}

			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./tsbridge.yaml)")
	rootCmd.PersistentFlags().StringP("project-dir", "C", "", "Project root directory")
	rootCmd.PersistentFlags().String("compiler", "", "Compiler provider (default: tsc)")
	rootCmd.PersistentFlags().String("compiler-path", "", "Path to the compiler executable")
	rootCmd.PersistentFlags().String("transformer", "", "Transformer provider (default: esbuild)")
	rootCmd.PersistentFlags().Bool("lite", false, "Lite runtime: skip loading the toolchain")
	rootCmd.PersistentFlags().String("state", "", "Path to the emit history database")
	rootCmd.PersistentFlags().Bool("history", true, "Record emit runs in the state database")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		modes := make([]string, 0, len(output.Modes))
		for _, m := range output.Modes {
			modes = append(modes, string(m))
		}
		return modes, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("compiler", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return tc.ListCompilers(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("transformer", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return tc.ListTransformers(), cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewEmitCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewOptionsCommand())
	rootCmd.AddCommand(commands.NewTranspileCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewReplCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// Main runs the root command with the process arguments and calls exit(1)
// once if it fails. Diagnostics behind a fatal error have already been
// logged, so only the summary line is printed.
func Main(exit func(int)) {
	if code := run(NewRootCmd(), os.Stderr); code != 0 {
		exit(code)
	}
}

func run(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	if errors.Is(err, tc.ErrCompilerUnavailable) {
		lite := false
		if cfg := config.GetCurrentConfig(); cfg != nil {
			lite = cfg.Lite
		}
		_, _ = fmt.Fprintf(stderr, "Hint: %s\n", classify.HintFor(classify.PrereqCompiler, lite))
	}
	return 1
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for tsbridge.

To load completions:

Bash:
  $ source <(tsbridge completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ tsbridge completion bash > /etc/bash_completion.d/tsbridge
  # macOS:
  $ tsbridge completion bash > $(brew --prefix)/etc/bash_completion.d/tsbridge

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ tsbridge completion zsh > "${fpath[1]}/_tsbridge"

Fish:
  $ tsbridge completion fish | source

  # To load completions for each session, execute once:
  $ tsbridge completion fish > ~/.config/fish/completions/tsbridge.fish

PowerShell:
  PS> tsbridge completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(w)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}
	return cmd
}
