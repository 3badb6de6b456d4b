package toolchain

import "context"

// ConfigFileName is the project configuration file the compiler reads.
const ConfigFileName = "tsconfig.json"

// ParsedConfig is the structured form of a project configuration file.
type ParsedConfig struct {
	// Raw holds the decoded top-level object.
	Raw map[string]any
}

// CompilerOptions returns the raw "compilerOptions" object, empty when absent.
func (p *ParsedConfig) CompilerOptions() map[string]any {
	if p == nil || p.Raw == nil {
		return map[string]any{}
	}
	if co, ok := p.Raw["compilerOptions"].(map[string]any); ok {
		return co
	}
	return map[string]any{}
}

// EmitOptions restricts what a program writes.
type EmitOptions struct {
	DeclarationsOnly bool
}

// EmitResult reports the outcome of Program.Emit.
type EmitResult struct {
	// EmitSkipped is true when blocking errors prevented any output.
	EmitSkipped  bool
	Diagnostics  []Diagnostic
	EmittedFiles []string
}

// Compiler is a type-checking compiler provider.
type Compiler interface {
	Name() string
	Version() string

	// ParseConfigText decodes configuration text. fileName is used for
	// diagnostics only. A non-nil diagnostic means the text is unusable.
	ParseConfigText(fileName string, text []byte) (*ParsedConfig, *Diagnostic)

	// ConvertCompilerOptions normalizes a raw compilerOptions object.
	// Relative paths are resolved against basePath.
	ConvertCompilerOptions(raw map[string]any, basePath string) (OptionSet, []Diagnostic)

	// ReadDirectory lists files under root whose extension is in extensions.
	ReadDirectory(root string, extensions []string) ([]string, error)

	// CreateProgram builds a compilation unit over rootNames.
	CreateProgram(ctx context.Context, rootNames []string, opts OptionSet) (Program, error)
}

// Program is a compiler's in-memory view of a set of sources and options.
type Program interface {
	// PreEmitDiagnostics returns configuration, syntactic and semantic
	// diagnostics raised before emission.
	PreEmitDiagnostics(ctx context.Context) ([]Diagnostic, error)

	Emit(ctx context.Context, opts EmitOptions) (*EmitResult, error)
}

// TransformOptions controls a single-file transform.
type TransformOptions struct {
	// SourceFile names the input in diagnostics and source maps.
	SourceFile string
	Target     ScriptTarget
	SourceMap  bool
	Minify     bool
}

// TransformResult is the output of Transformer.Transform.
type TransformResult struct {
	Code        []byte
	Map         []byte
	Diagnostics []Diagnostic
}

// Transformer is a fast, non-checking source transformer provider.
type Transformer interface {
	Name() string
	Transform(ctx context.Context, source []byte, opts TransformOptions) (*TransformResult, error)
}

// Sink receives leveled log messages. *slog.Logger satisfies it.
type Sink interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Host reports the capability profile of the running process.
type Host interface {
	// Lite reports the fast, low-memory runtime mode in which compiler
	// loading is disabled by policy.
	Lite() bool
}

// StaticHost is a Host with a fixed answer.
type StaticHost bool

// Lite implements Host.
func (h StaticHost) Lite() bool { return bool(h) }
