package commands

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tsbridge/internal/testutil"
	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	return p
}

func TestTranspile_Stdout(t *testing.T) {
	cfg := testProject(t, false)
	src := writeSource(t, cfg.ProjectRoot, "a.js", "export const a = 1;\n")

	out, _, err := runCommand(t, NewTranspileCommand(), cfg, testutil.Providers{T: &testutil.FakeTransformer{}}, src)
	require.NoError(t, err)
	assert.Equal(t, "export const a = 1;\n", out)
}

func TestTranspile_OutFile(t *testing.T) {
	cfg := testProject(t, false)
	src := writeSource(t, cfg.ProjectRoot, "a.js", "export const a = 1;\n")
	dest := filepath.Join(cfg.ProjectRoot, "build", "nested", "a.js")

	out, _, err := runCommand(t, NewTranspileCommand(), cfg, testutil.Providers{T: &testutil.FakeTransformer{}}, src, "-O", dest)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "export const a = 1;\n", string(data))
}

func TestTranspile_Errors(t *testing.T) {
	cfg := testProject(t, false)
	src := writeSource(t, cfg.ProjectRoot, "a.ts", "let x: number = 1;\n")

	t.Run("no transformer", func(t *testing.T) {
		_, _, err := runCommand(t, NewTranspileCommand(), cfg, testutil.Providers{}, src)
		assert.ErrorContains(t, err, "transformer unavailable")
	})

	t.Run("sourcemap without out", func(t *testing.T) {
		_, _, err := runCommand(t, NewTranspileCommand(), cfg, testutil.Providers{T: &testutil.FakeTransformer{}}, src, "--sourcemap")
		assert.ErrorContains(t, err, "--sourcemap requires --out")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := runCommand(t, NewTranspileCommand(), cfg, testutil.Providers{T: &testutil.FakeTransformer{}}, filepath.Join(cfg.ProjectRoot, "nope.ts"))
		assert.ErrorContains(t, err, "failed to read")
	})

	t.Run("transform failure", func(t *testing.T) {
		boom := errors.New("boom")
		_, _, err := runCommand(t, NewTranspileCommand(), cfg, testutil.Providers{T: &testutil.FakeTransformer{Err: boom}}, src)
		require.ErrorIs(t, err, boom)
		assert.False(t, tc.IsFatal(err))
	})
}
