// Package config loads tsbridge settings from defaults, tsbridge.yaml,
// TSBRIDGE_* environment variables and command-line flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	ProjectDir      string         `koanf:"project_dir"`
	Compiler        string         `koanf:"compiler"`
	CompilerPath    string         `koanf:"compiler_path"`
	Transformer     string         `koanf:"transformer"`
	Lite            bool           `koanf:"lite"`
	StatePath       string         `koanf:"state_path"`
	Verbose         bool           `koanf:"verbose"`
	OutputFormat    string         `koanf:"output"`
	History         bool           `koanf:"history"`
	CompilerOptions map[string]any `koanf:"compiler_options"`

	// ProjectRoot is the absolute project directory every relative path
	// was resolved against. It is not read from any source.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultCompiler    = "tsc"
	DefaultTransformer = "esbuild"
	DefaultStateFile   = ".tsbridge/state.db"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	ConfigFileName     = "tsbridge.yaml"
)
