package esbuild

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tsbridge/internal/testutil"
	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

func acquire(t *testing.T) tc.Transformer {
	t.Helper()
	tr, err := Acquire(context.Background(), tc.AcquireRequest{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return tr
}

func TestAcquire_Registered(t *testing.T) {
	assert.Contains(t, tc.ListTransformers(), Name)
	tr := acquire(t)
	assert.Equal(t, "esbuild", tr.Name())
}

func TestTransform_StripsTypes(t *testing.T) {
	tr := acquire(t)

	res, err := tr.Transform(context.Background(), []byte("const x: number = 1;\nexport interface P { a: string }\n"), tc.TransformOptions{SourceFile: "x.ts"})
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.Contains(t, string(res.Code), "const x = 1;")
	assert.NotContains(t, string(res.Code), "interface")
}

func TestTransform_SyntaxErrorBecomesDiagnostic(t *testing.T) {
	tr := acquire(t)

	res, err := tr.Transform(context.Background(), []byte("let a = ;\n"), tc.TransformOptions{SourceFile: "bad.ts"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Diagnostics)

	d := res.Diagnostics[0]
	assert.Equal(t, tc.CategoryError, d.Category)
	require.NotNil(t, d.Location)
	assert.Equal(t, "bad.ts", d.Location.File)
	assert.Equal(t, 0, d.Location.Line)
	assert.Equal(t, 8, d.Location.Character)
	assert.True(t, tc.HasErrors(res.Diagnostics))
}

func TestTransform_Options(t *testing.T) {
	tr := acquire(t)

	res, err := tr.Transform(context.Background(), []byte("export const longName = (value: number) => value * 2;\n"), tc.TransformOptions{
		SourceFile: "m.ts",
		Target:     tc.TargetES2020,
		SourceMap:  true,
		Minify:     true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Map)
	assert.NotContains(t, string(res.Code), "value: number")
}

func TestTransform_Rejections(t *testing.T) {
	tr := acquire(t)

	_, err := tr.Transform(context.Background(), []byte("x"), tc.TransformOptions{SourceFile: "style.css"})
	assert.ErrorContains(t, err, "unsupported source extension .css")

	_, err = tr.Transform(context.Background(), []byte("x"), tc.TransformOptions{SourceFile: "a.ts", Target: tc.TargetES3})
	assert.ErrorContains(t, err, "does not support target ES3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Transform(ctx, []byte("x"), tc.TransformOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
