package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "config file")
	flags.String("project-dir", "", "project directory")
	flags.String("compiler", "", "compiler provider")
	flags.String("compiler-path", "", "compiler binary")
	flags.String("state", "", "state database")
	flags.Bool("lite", false, "lite runtime")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.StringP("output", "o", "", "output format")
	return flags
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()

	flags := newFlags()
	require.NoError(t, flags.Set("project-dir", dir))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, DefaultCompiler, cfg.Compiler)
	assert.Equal(t, DefaultTransformer, cfg.Transformer)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.True(t, cfg.History)
	assert.False(t, cfg.Lite)
	assert.Empty(t, cfg.CompilerPath)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `compiler_path: node_modules/.bin/tsc
lite: true
history: false
state_path: build/state.db
compiler_options:
  strict: true
  target: ES2022
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Equal(t, dir, cfg.ProjectRoot, "config file directory is the project root")
	assert.Equal(t, filepath.Join(dir, "node_modules", ".bin", "tsc"), cfg.CompilerPath)
	assert.Equal(t, filepath.Join(dir, "build", "state.db"), cfg.StatePath)
	assert.True(t, cfg.Lite)
	assert.False(t, cfg.History)
	assert.Equal(t, true, cfg.CompilerOptions["strict"])
	assert.Equal(t, "ES2022", cfg.CompilerOptions["target"])
}

func TestLoadConfig_FoundInProjectDir(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	writeConfig(t, dir, "transformer: custom\n")

	flags := newFlags()
	require.NoError(t, flags.Set("project-dir", dir))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Transformer)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), GetConfigFileUsed())
}

func TestLoadConfig_ProjectDirFromFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "project_dir: packages/app\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "packages", "app"), cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "packages", "app", DefaultStateFile), cfg.StatePath)
}

// TestLoadConfig_FlagPrecedence tests that flags override env vars and config file.
func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "compiler: from_file\n")
	t.Setenv("TSBRIDGE_COMPILER", "from_env")

	flags := newFlags()
	require.NoError(t, flags.Set("compiler", "from_flag"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)
	assert.Equal(t, "from_flag", cfg.Compiler, "flag value should override config file and env var")
}

// TestLoadConfig_EnvPrecedenceOverFile tests that env vars override config file.
func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "compiler: from_file\nlite: false\n")
	t.Setenv("TSBRIDGE_COMPILER", "from_env")
	t.Setenv("TSBRIDGE_LITE", "true")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Compiler, "env var should override config file")
	assert.True(t, cfg.Lite)
}

// TestLoadConfig_FlagNotSetUsesEnv tests that unset flags fall back to env vars.
func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "compiler: from_file\n")
	t.Setenv("TSBRIDGE_COMPILER", "from_env")

	cfg, err := LoadConfig(cfgPath, newFlags())
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Compiler, "env var should be used when flag is not set")
}

func TestLoadConfig_StateFlag(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()

	flags := newFlags()
	require.NoError(t, flags.Set("project-dir", dir))
	require.NoError(t, flags.Set("state", filepath.Join(dir, "custom.db")))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom.db"), cfg.StatePath)
}

func TestLoadConfig_ExpandsEnvVars(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "compiler_path: ${TSC_HOME}/bin/tsc\n")
	t.Setenv("TSC_HOME", "/opt/typescript")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "/opt/typescript/bin/tsc", cfg.CompilerPath)
}

func TestLoadConfig_Errors(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"), nil)
	assert.ErrorContains(t, err, "error reading config file")

	bad := writeConfig(t, dir, "output: xml\n")
	_, err = LoadConfig(bad, nil)
	assert.ErrorContains(t, err, "unknown output format")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{Compiler: "tsc", Transformer: "esbuild", OutputFormat: "JSON"}},
		{name: "no compiler", cfg: Config{Transformer: "esbuild"}, wantErr: "compiler is required"},
		{name: "no transformer", cfg: Config{Compiler: "tsc"}, wantErr: "transformer is required"},
		{name: "bad output", cfg: Config{Compiler: "tsc", Transformer: "esbuild", OutputFormat: "html"}, wantErr: "unknown output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFindProjectRootUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))

	assert.Equal(t, root, findProjectRootUpward(nested))
	assert.Empty(t, findProjectRootUpward(t.TempDir()))
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "falls back to a discard logger")

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
	assert.Same(t, logger, ctx.Value(LoggerKey()))
}
