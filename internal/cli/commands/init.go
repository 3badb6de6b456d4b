package commands

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tsbridge/internal/cli/output"
	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

//go:embed all:templates
var templates embed.FS

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tsbridge project",
		Long: `Initialize a project with a tsconfig.json, a tsbridge.yaml and a src/
directory.

Use --example to add sample TypeScript and JavaScript sources.`,
		Example: `  # Initialize in current directory
  tsbridge init

  # Initialize a new directory with sample sources
  tsbridge init my-lib --example

  # Force overwrite existing config
  tsbridge init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig(cmd.Context())
			mode, _ := output.ParseMode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			name := "minimal"
			if example {
				name = "example"
			}
			return runInit(r, name, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Add sample sources under src/")

	return cmd
}

func runInit(r *output.Renderer, template, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, tc.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", tc.ConfigFileName)
	}

	files, err := copyTemplate(template, dir)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0750); err != nil {
		return fmt.Errorf("failed to create src directory: %w", err)
	}

	for _, f := range files {
		r.StatusLine(f, "success", "")
	}
	r.Println("")
	r.Success("tsbridge project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Add .ts or .js sources to src/")
	r.Println("  2. Run 'tsbridge doctor' to check the toolchain")
	r.Println("  3. Run 'tsbridge emit' to write declarations to dist/")

	return nil
}

// copyTemplate writes the embedded template tree into dir and returns the
// written paths, relative to dir.
func copyTemplate(name, dir string) ([]string, error) {
	base := path.Join("templates", name)
	var written []string
	err := fs.WalkDir(templates, base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := p[len(base):]
		if rel == "" {
			return nil
		}
		rel = rel[1:]
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if d.IsDir() {
			return os.MkdirAll(target, 0750)
		}
		data, err := templates.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0600); err != nil {
			return err
		}
		written = append(written, rel)
		return nil
	})
	return written, err
}
