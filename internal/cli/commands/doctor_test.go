package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tsbridge/internal/cli/config"
	"github.com/leapstack-labs/tsbridge/internal/testutil"
)

// testProject creates a project directory, optionally with a tsconfig.json.
func testProject(t *testing.T, withConfig bool) *config.Config {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0750))
	if withConfig {
		require.NoError(t, os.WriteFile(filepath.Join(root, "tsconfig.json"), []byte(`{"compilerOptions":{}}`), 0600))
	}
	return &config.Config{
		ProjectDir:   root,
		ProjectRoot:  root,
		Compiler:     config.DefaultCompiler,
		Transformer:  config.DefaultTransformer,
		StatePath:    filepath.Join(root, config.DefaultStateFile),
		OutputFormat: "text",
	}
}

// runCommand executes cmd with the given project config and providers and
// returns stdout and stderr.
func runCommand(t *testing.T, cmd *cobra.Command, cfg *config.Config, providers Toolchain, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	ctx := config.WithConfig(context.Background(), cfg)
	ctx = config.WithLogger(ctx, testutil.NewTestLogger(t))
	ctx = WithToolchain(ctx, providers)

	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestDoctor_TypeChecked(t *testing.T) {
	cfg := testProject(t, true)
	providers := testutil.Providers{C: &testutil.FakeCompiler{}, T: &testutil.FakeTransformer{}}

	out, _, err := runCommand(t, NewDoctorCommand(), cfg, providers, "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "Tsconfig")
	assert.Contains(t, out, "fake 0.0.0-test")
	assert.Contains(t, out, "Project is type-checked")
}

func TestDoctor_MissingInOrder(t *testing.T) {
	cfg := testProject(t, false)

	out, _, err := runCommand(t, NewDoctorCommand(), cfg, testutil.Providers{}, "--format", "json")
	require.NoError(t, err)

	var got DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.TypeChecked)
	assert.Equal(t, []string{"tsconfig", "compiler", "transformer"}, got.Missing)
	require.Len(t, got.Checks, 3)
	for _, c := range got.Checks {
		assert.False(t, c.OK)
		assert.NotEmpty(t, c.Hint)
	}
}

func TestDoctor_Strict(t *testing.T) {
	cfg := testProject(t, true)
	providers := testutil.Providers{T: &testutil.FakeTransformer{}}

	out, _, err := runCommand(t, NewDoctorCommand(), cfg, providers, "--strict", "--format", "markdown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing compiler")
	assert.Contains(t, out, "# tsbridge Project Check")
	assert.Contains(t, out, "| Compiler | missing |")
}

func TestDoctor_BadFormat(t *testing.T) {
	cfg := testProject(t, true)

	_, _, err := runCommand(t, NewDoctorCommand(), cfg, testutil.Providers{}, "--format", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}
