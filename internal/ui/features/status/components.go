package status

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/tsbridge/internal/ui/resources"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// PanelID is the element the SSE stream patches.
const PanelID = "emit-status"

// Page renders the full status page around the current panel.
func Page(project string, current *Status) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		esc := templ.EscapeString[string]
		if _, err := fmt.Fprintf(w, `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>tsbridge - %s</title>
<link rel="stylesheet" href="%s">
<script type="module" src="%s"></script>
</head>
<body data-init="@get('/updates')">
<h1>tsbridge watch</h1>
<p class="muted">%s</p>
`, esc(project), resources.StaticPath("style.css"), datastarScript, esc(project)); err != nil {
			return err
		}
		if err := Panel(current).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n</body>\n</html>\n")
		return err
	})
}

// Panel renders the emit summary. A nil status shows a waiting state.
func Panel(s *Status) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		esc := templ.EscapeString[string]
		var b strings.Builder
		fmt.Fprintf(&b, `<section id="%s">`, PanelID)

		if s == nil {
			b.WriteString(`<p><span class="badge waiting">waiting</span> No emit has finished yet.</p></section>`)
			_, err := io.WriteString(w, b.String())
			return err
		}

		badge, label := "ok", "emitted"
		if !s.OK {
			badge, label = "failed", "failed"
		}
		if s.Skipped {
			label = "skipped"
		}
		fmt.Fprintf(&b, `<p><span class="badge %s">%s</span> <span class="muted">%s`,
			badge, label, s.At.Format(time.TimeOnly))
		if s.Compiler != "" {
			fmt.Fprintf(&b, ` &middot; %s`, esc(s.Compiler))
		}
		b.WriteString(`</span></p>`)

		fmt.Fprintf(&b, `<p class="counts"><span>%d source(s)</span><span>%d declaration(s)</span><span>%d error(s)</span><span>%d warning(s)</span><span>%d ms</span></p>`,
			s.Sources, len(s.Emitted), s.Errors, s.Warnings, s.DurationMS)

		if s.Error != "" {
			fmt.Fprintf(&b, `<p class="error">%s</p>`, esc(s.Error))
		}
		if len(s.Diagnostics) > 0 {
			b.WriteString(`<ul class="diagnostics">`)
			for _, d := range s.Diagnostics {
				fmt.Fprintf(&b, `<li class="%s">%s</li>`, esc(d.Category), esc(d.Text))
			}
			b.WriteString(`</ul>`)
		}
		b.WriteString(`</section>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
