package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tsbridge/internal/classify"
	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

const (
	replPrompt     = "tsbridge> "
	replContPrompt = "     ...> "
)

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive TypeScript transpiler",
		Long: `Start an interactive session that strips types from TypeScript snippets
and prints the resulting JavaScript.

A snippet is sent once its braces, brackets and parentheses are balanced.
Lines starting with a dot are session commands; type .help to list them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			transformer, ok := cmdCtx.Toolchain.Transformer()
			if !ok {
				return fmt.Errorf("transformer unavailable\nHint: %s", classify.HintFor(classify.PrereqTransformer, cmdCtx.Cfg.Lite))
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          replPrompt,
				HistoryFile:     filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "repl_history"),
				AutoComplete:    replCompleter(),
				InterruptPrompt: "^C",
				EOFPrompt:       ".quit",
				Stdout:          cmd.OutOrStdout(),
				Stderr:          cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize REPL: %w", err)
			}
			defer func() { _ = rl.Close() }()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tsbridge REPL (%s, target %s)\n", transformer.Name(), target)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
			_, _ = fmt.Fprintln(cmd.OutOrStdout())

			s := &replSession{
				transformer: transformer,
				target:      tc.ScriptTarget(target),
				out:         cmd.OutOrStdout(),
				errOut:      cmd.ErrOrStderr(),
			}
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					s.reset()
					rl.SetPrompt(replPrompt)
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if s.feed(cmd.Context(), line) {
					return nil
				}
				if s.pending() {
					rl.SetPrompt(replContPrompt)
				} else {
					rl.SetPrompt(replPrompt)
				}
			}
		},
	}

	cmd.Flags().StringVar(&target, "target", string(tc.TargetES2020), "Output language level")

	return cmd
}

// replSession accumulates input lines into snippets and transpiles them.
type replSession struct {
	transformer tc.Transformer
	target      tc.ScriptTarget
	minify      bool
	out, errOut io.Writer

	buf   strings.Builder
	depth int
}

// feed consumes one input line. It reports true when the session should
// end.
func (s *replSession) feed(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if s.buf.Len() == 0 {
		if trimmed == "" {
			return false
		}
		if strings.HasPrefix(trimmed, ".") {
			return s.command(trimmed)
		}
	}

	s.buf.WriteString(line)
	s.buf.WriteByte('\n')
	s.depth += nesting(line)
	if s.depth > 0 {
		return false
	}

	source := s.buf.String()
	s.reset()
	s.eval(ctx, source)
	return false
}

func (s *replSession) pending() bool { return s.buf.Len() > 0 }

func (s *replSession) reset() {
	s.buf.Reset()
	s.depth = 0
}

func (s *replSession) eval(ctx context.Context, source string) {
	res, err := s.transformer.Transform(ctx, []byte(source), tc.TransformOptions{
		SourceFile: "repl.ts",
		Target:     s.target,
		Minify:     s.minify,
	})
	if err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	for _, d := range res.Diagnostics {
		_, _ = fmt.Fprintf(s.errOut, "%s: %s\n", d.Category, tc.FormatDiagnostic(d))
	}
	if tc.HasErrors(res.Diagnostics) {
		return
	}
	_, _ = s.out.Write(res.Code)
	if len(res.Code) > 0 && res.Code[len(res.Code)-1] != '\n' {
		_, _ = fmt.Fprintln(s.out)
	}
}

func (s *replSession) command(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		printReplHelp(s.out)
	case ".target":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(s.out, "target: %s\n", s.target)
			return false
		}
		s.target = tc.ScriptTarget(parts[1])
		_, _ = fmt.Fprintf(s.out, "target: %s\n", s.target)
	case ".minify":
		s.minify = !s.minify
		_, _ = fmt.Fprintf(s.out, "minify: %t\n", s.minify)
	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

// nesting returns the change in bracket depth over line, ignoring brackets
// inside string and template literals and after a line comment.
func nesting(line string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return depth
			}
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
		}
	}
	return depth
}

func printReplHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .target [name]  Show or set the output language level
  .minify         Toggle minified output
  .quit / .exit   Exit the REPL

Tips:
  - Multi-line input continues until brackets are balanced
  - Ctrl-C discards the current snippet
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

func replCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".target",
			readline.PcItem(string(tc.TargetES2015)),
			readline.PcItem(string(tc.TargetES2020)),
			readline.PcItem(string(tc.TargetES2022)),
			readline.PcItem(string(tc.TargetESNext)),
		),
		readline.PcItem(".minify"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
