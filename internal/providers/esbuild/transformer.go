// Package esbuild provides the fast transformer backed by esbuild's Go API.
package esbuild

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// Name is the registry name of this provider.
const Name = "esbuild"

func init() {
	tc.RegisterTransformer(Name, Acquire)
}

// checkSource exercises the TypeScript loader during acquisition.
const checkSource = "export const ok: boolean = true;\n"

var targets = map[tc.ScriptTarget]api.Target{
	tc.TargetES5:    api.ES5,
	tc.TargetES2015: api.ES2015,
	tc.TargetES2016: api.ES2016,
	tc.TargetES2017: api.ES2017,
	tc.TargetES2018: api.ES2018,
	tc.TargetES2019: api.ES2019,
	tc.TargetES2020: api.ES2020,
	tc.TargetES2021: api.ES2021,
	tc.TargetES2022: api.ES2022,
	tc.TargetES2023: api.ES2023,
	tc.TargetESNext: api.ESNext,
}

var loaders = map[string]api.Loader{
	".ts":  api.LoaderTS,
	".mts": api.LoaderTS,
	".cts": api.LoaderTS,
	".tsx": api.LoaderTSX,
	".js":  api.LoaderJS,
	".mjs": api.LoaderJS,
	".cjs": api.LoaderJS,
	".jsx": api.LoaderJSX,
}

// Transformer strips types from single files without checking them.
type Transformer struct {
	logger *slog.Logger
}

// Acquire returns the transformer after a test transform succeeds.
func Acquire(_ context.Context, req tc.AcquireRequest) (tc.Transformer, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	res := api.Transform(checkSource, api.TransformOptions{Loader: api.LoaderTS})
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("esbuild self-check failed: %s", res.Errors[0].Text)
	}
	return &Transformer{logger: logger}, nil
}

// Name implements toolchain.Transformer.
func (t *Transformer) Name() string { return Name }

// Transform implements toolchain.Transformer. Syntax errors are returned as
// diagnostics on the result, not as an error.
func (t *Transformer) Transform(ctx context.Context, source []byte, opts tc.TransformOptions) (*tc.TransformResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loader, err := loaderFor(opts.SourceFile)
	if err != nil {
		return nil, err
	}
	target := api.ESNext
	if opts.Target != "" {
		mapped, ok := targets[opts.Target]
		if !ok {
			return nil, fmt.Errorf("esbuild does not support target %s", opts.Target)
		}
		target = mapped
	}

	esOpts := api.TransformOptions{
		Loader:     loader,
		Target:     target,
		Sourcefile: opts.SourceFile,
		LogLevel:   api.LogLevelSilent,
	}
	if opts.SourceMap {
		esOpts.Sourcemap = api.SourceMapExternal
	}
	if opts.Minify {
		esOpts.MinifyWhitespace = true
		esOpts.MinifyIdentifiers = true
		esOpts.MinifySyntax = true
	}

	res := api.Transform(string(source), esOpts)

	out := &tc.TransformResult{
		Code: res.Code,
		Map:  res.Map,
	}
	for _, m := range res.Errors {
		out.Diagnostics = append(out.Diagnostics, toDiagnostic(tc.CategoryError, m))
	}
	for _, m := range res.Warnings {
		out.Diagnostics = append(out.Diagnostics, toDiagnostic(tc.CategoryWarning, m))
	}
	t.logger.Debug("transformed", "file", opts.SourceFile, "bytes", len(res.Code), "errors", len(res.Errors))
	return out, nil
}

func loaderFor(file string) (api.Loader, error) {
	if file == "" {
		return api.LoaderTS, nil
	}
	ext := strings.ToLower(filepath.Ext(file))
	if l, ok := loaders[ext]; ok {
		return l, nil
	}
	return api.LoaderNone, errors.New("unsupported source extension " + ext)
}

// toDiagnostic converts an esbuild message. esbuild lines are 1-based and
// columns 0-based.
func toDiagnostic(cat tc.Category, m api.Message) tc.Diagnostic {
	d := tc.Diagnostic{
		Category: cat,
		Message:  tc.MessageChain{Text: m.Text},
	}
	if m.Location != nil {
		d.Location = &tc.Location{
			File:      m.Location.File,
			Line:      m.Location.Line - 1,
			Character: m.Location.Column,
		}
	}
	for _, n := range m.Notes {
		d.Message.Next = append(d.Message.Next, tc.MessageChain{Text: n.Text})
	}
	return d
}
