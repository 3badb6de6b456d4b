package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/tsbridge/internal/classify"
	"github.com/leapstack-labs/tsbridge/internal/cli/output"
	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, markdown, json
	Strict bool   // fail unless the project is type-checked
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check whether the project is type-checked",
		Long: `Report the three prerequisites of a type-checked project:

  - a tsconfig.json in the project root
  - an available TypeScript compiler
  - an available transformer

Missing prerequisites are listed in that order with a hint for each.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run the check
  tsbridge doctor

  # Fail in CI when anything is missing
  tsbridge doctor --strict

  # Output as JSON
  tsbridge doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Exit with an error unless the project is type-checked")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Project     string        `json:"project"`
	TypeChecked bool          `json:"type_checked"`
	Checks      []PrereqCheck `json:"checks"`
	Missing     []string      `json:"missing"`
}

// PrereqCheck is the state of one prerequisite.
type PrereqCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	if opts.Format != "" {
		mode, err := output.ParseMode(opts.Format)
		if err != nil {
			return err
		}
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
	}

	result := cmdCtx.Classifier().Classify()
	out := buildDoctorOutput(cmdCtx, result)

	var err error
	switch r.EffectiveMode() {
	case output.ModeJSON:
		err = r.JSON(out)
	default:
		renderDoctor(r, out)
	}
	if err != nil {
		return err
	}

	if opts.Strict && !out.TypeChecked {
		return fmt.Errorf("project is not type-checked: missing %s", strings.Join(out.Missing, ", "))
	}
	return nil
}

func buildDoctorOutput(cmdCtx *CommandContext, result classify.Result) *DoctorOutput {
	out := &DoctorOutput{
		Project:     cmdCtx.Cfg.ProjectRoot,
		TypeChecked: result.TypeChecked,
		Missing:     []string{},
	}

	for _, p := range classify.Order {
		check := PrereqCheck{Name: string(p), OK: !result.IsMissing(p)}
		if check.OK {
			check.Detail = prereqDetail(cmdCtx, p)
		} else {
			check.Hint = classify.HintFor(p, cmdCtx.Cfg.Lite)
			out.Missing = append(out.Missing, string(p))
		}
		out.Checks = append(out.Checks, check)
	}
	return out
}

func prereqDetail(cmdCtx *CommandContext, p classify.Prerequisite) string {
	switch p {
	case classify.PrereqConfigFile:
		return filepath.Join(cmdCtx.Cfg.ProjectRoot, tc.ConfigFileName)
	case classify.PrereqCompiler:
		if c, ok := cmdCtx.Toolchain.Compiler(); ok {
			return c.Name() + " " + c.Version()
		}
	case classify.PrereqTransformer:
		if t, ok := cmdCtx.Toolchain.Transformer(); ok {
			return t.Name()
		}
	}
	return ""
}

func renderDoctor(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()
	titleCaser := cases.Title(language.English)
	markdown := r.EffectiveMode() == output.ModeMarkdown

	r.Header(1, "tsbridge Project Check")
	r.Println("")
	r.Printf("Project: %s\n", out.Project)
	r.Println("")

	rows := make([]table.Row, 0, len(out.Checks))
	for _, check := range out.Checks {
		status := "ok"
		if !markdown {
			status = styles.StatusSuccess.String() + " ok"
		}
		detail := check.Detail
		if !check.OK {
			status = "missing"
			if !markdown {
				status = styles.StatusFailed.String() + " missing"
			}
			detail = check.Hint
		}
		rows = append(rows, table.Row{titleCaser.String(check.Name), status, detail})
	}
	r.Table(table.Row{"Prerequisite", "Status", "Detail"}, rows)
	r.Println("")

	if out.TypeChecked {
		r.Success("Project is type-checked: declarations will be emitted")
		return
	}
	r.Println(styles.Warning.Render(fmt.Sprintf("Project is not type-checked (missing: %s)", strings.Join(out.Missing, ", "))))
}
