package tsc

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tsbridge/internal/testutil"
	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		out     string
		want    string
		wantErr bool
	}{
		{out: "Version 5.4.5\n", want: "5.4.5"},
		{out: "Version 4.7.0-beta", want: "4.7.0-beta"},
		{out: "", wantErr: true},
		{out: "Version five", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.out, func(t *testing.T) {
			got, err := parseVersion(tt.out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, checkVersion("5.4.5"))
	assert.NoError(t, checkVersion("4.7.0"))
	assert.Error(t, checkVersion("4.6.4"))
	assert.Error(t, checkVersion("3.9.10"))
}

func TestParseConfigText(t *testing.T) {
	text := []byte(`{
  // line comment with "quotes"
  "compilerOptions": {
    /* block
       comment */
    "target": "ES2020",
    "outDir": "./build", // trailing comment
    "paths": { "@/*": ["src/*"], },
  },
  "include": ["src/**/*.ts", "http://not-a-comment"],
}`)

	cfg, diag := parseConfigText("/p/tsconfig.json", text)
	require.Nil(t, diag)
	assert.Equal(t, "ES2020", cfg.CompilerOptions()["target"])
	assert.Equal(t, []any{"src/**/*.ts", "http://not-a-comment"}, cfg.Raw["include"])
}

func TestParseConfigText_Errors(t *testing.T) {
	cfg, diag := parseConfigText("/p/tsconfig.json", []byte("{\n  \"compilerOptions\": {\n    \"target\" \"ES5\"\n  }\n}"))
	assert.Nil(t, cfg)
	require.NotNil(t, diag)
	assert.Equal(t, tc.CategoryError, diag.Category)
	require.NotNil(t, diag.Location)
	assert.Equal(t, "/p/tsconfig.json", diag.Location.File)
	assert.Equal(t, 2, diag.Location.Line)

	_, diag = parseConfigText("/p/tsconfig.json", []byte(`["not", "an", "object"]`))
	require.NotNil(t, diag)
	assert.Equal(t, 5092, diag.Code)

	cfg, diag = parseConfigText("/p/tsconfig.json", []byte("  // only a comment\n"))
	require.Nil(t, diag)
	assert.Empty(t, cfg.CompilerOptions())
}

func TestConvertOptions_Normalizes(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "work", "app")
	raw := map[string]any{
		"target":           "ES2020",
		"module":           "nodenext",
		"moduleResolution": "node",
		"outDir":           "./build",
		"rootDir":          "src",
		"declarationDir":   filepath.Join(string(filepath.Separator), "abs", "types"),
		"typeRoots":        []any{"./types", "node_modules/@types"},
		"lib":              []any{"ES2020", "DOM"},
		"strict":           true,
		"jsx":              "React-JSX",
		"paths":            map[string]any{"@/*": []any{"src/*"}},
		"customPlugin":     map[string]any{"name": "x"},
	}

	opts, diags := convertOptions(raw, base)
	require.Empty(t, diags)

	assert.Equal(t, tc.TargetES2020, opts[tc.OptTarget])
	assert.Equal(t, tc.ModuleNodeNext, opts[tc.OptModule])
	assert.Equal(t, tc.ResolutionNode10, opts[tc.OptModuleResolution])
	assert.Equal(t, filepath.Join(base, "build"), opts[tc.OptOutDir])
	assert.Equal(t, filepath.Join(base, "src"), opts[tc.OptRootDir])
	assert.Equal(t, filepath.Join(string(filepath.Separator), "abs", "types"), opts[tc.OptDeclarationDir])
	assert.Equal(t, []string{filepath.Join(base, "types"), filepath.Join(base, "node_modules", "@types")}, opts["typeRoots"])
	assert.Equal(t, []string{"ES2020", "DOM"}, opts["lib"])
	assert.Equal(t, true, opts[tc.OptStrict])
	assert.Equal(t, "react-jsx", opts["jsx"])
	assert.Equal(t, map[string]any{"@/*": []string{filepath.Join(base, "src", "*")}}, opts["paths"])
	assert.Equal(t, map[string]any{"name": "x"}, opts["customPlugin"], "unknown options pass through")
}

func TestConvertOptions_PathsFollowBaseURL(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "work", "app")
	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{
			name: "relative baseUrl",
			raw:  map[string]any{"baseUrl": "lib", "paths": map[string]any{"@/*": []any{"./src/*"}}},
			want: filepath.Join(base, "lib", "src", "*"),
		},
		{
			name: "absolute baseUrl",
			raw: map[string]any{
				"baseUrl": filepath.Join(string(filepath.Separator), "shared"),
				"paths":   map[string]any{"@/*": []any{"src/*"}},
			},
			want: filepath.Join(string(filepath.Separator), "shared", "src", "*"),
		},
		{
			name: "no baseUrl",
			raw:  map[string]any{"paths": map[string]any{"@/*": []any{"./src/*"}}},
			want: filepath.Join(base, "src", "*"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, diags := convertOptions(tt.raw, base)
			require.Empty(t, diags)
			assert.Equal(t, map[string]any{"@/*": []string{tt.want}}, opts["paths"])
		})
	}
}

func TestConvertOptions_Errors(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		wantCode int
		wantMsg  string
	}{
		{
			name:     "bool type",
			raw:      map[string]any{"strict": "yes"},
			wantCode: 5024,
			wantMsg:  "Compiler option 'strict' requires a value of type boolean.",
		},
		{
			name:     "list type",
			raw:      map[string]any{"lib": "ES2020"},
			wantCode: 5024,
			wantMsg:  "Compiler option 'lib' requires a value of type Array.",
		},
		{
			name:     "invalid target",
			raw:      map[string]any{"target": "ES1999"},
			wantCode: 6046,
			wantMsg:  "Argument for '--target' option must be:",
		},
		{
			name:     "target wrong type",
			raw:      map[string]any{"target": 2020.0},
			wantCode: 5024,
			wantMsg:  "requires a value of type string",
		},
		{
			name:     "paths substitutions",
			raw:      map[string]any{"paths": map[string]any{"@/*": "src/*"}},
			wantCode: 5063,
			wantMsg:  "Substitutions for pattern '@/*' should be an array.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, diags := convertOptions(tt.raw, "/p")
			require.Len(t, diags, 1)
			assert.Equal(t, tt.wantCode, diags[0].Code)
			assert.Contains(t, tc.FormatDiagnostic(diags[0]), tt.wantMsg)
			assert.Empty(t, opts)
		})
	}
}

func TestReadDirectory(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{
		"index.ts",
		"util.js",
		"types.d.ts",
		"style.css",
		"nested/deep.ts",
		"node_modules/dep/index.ts",
		".cache/tmp.ts",
	} {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
		require.NoError(t, os.WriteFile(path, []byte("export {};\n"), 0600))
	}

	files, err := readDirectory(root, []string{".js", ".ts"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "index.ts"),
		filepath.Join(root, "nested", "deep.ts"),
		filepath.Join(root, "util.js"),
	}, files)

	files, err = readDirectory(filepath.Join(root, "missing"), []string{".ts"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestParseOutput(t *testing.T) {
	out := []byte("src/a.ts(5,10): error TS2322: Type '{ a: string; }' is not assignable to type 'Foo'.\n" +
		"  Types of property 'a' are incompatible.\n" +
		"    Type 'string' is not assignable to type 'number'.\n" +
		"error TS5023: Unknown compiler option 'foo'.\n" +
		"src/b.js(1,1): warning TS6133: 'x' is declared but its value is never read.\n" +
		"TSFILE: /app/dist/a.d.ts\r\n" +
		"TSFILE: /app/dist/b.d.ts\n")

	diags, emitted := parseOutput(out)
	require.Len(t, diags, 3)
	assert.Equal(t, []string{"/app/dist/a.d.ts", "/app/dist/b.d.ts"}, emitted)

	assert.Equal(t, 2322, diags[0].Code)
	assert.Equal(t, tc.CategoryError, diags[0].Category)
	assert.Equal(t, &tc.Location{File: "src/a.ts", Line: 4, Character: 9}, diags[0].Location)
	assert.Equal(t,
		"src/a.ts (5,10): Type '{ a: string; }' is not assignable to type 'Foo'.\n"+
			"  Types of property 'a' are incompatible.\n"+
			"    Type 'string' is not assignable to type 'number'.",
		tc.FormatDiagnostic(diags[0]))

	assert.Nil(t, diags[1].Location)
	assert.Equal(t, "Unknown compiler option 'foo'.", tc.FormatDiagnostic(diags[1]))
	assert.Equal(t, tc.CategoryWarning, diags[2].Category)
}

func TestSubtract(t *testing.T) {
	a := tc.NewDiagnostic(tc.CategoryError, 1, nil, "a")
	b := tc.NewDiagnostic(tc.CategoryError, 2, nil, "b")

	assert.Equal(t, []tc.Diagnostic{b}, subtract([]tc.Diagnostic{a, b}, []tc.Diagnostic{a}))
	assert.Equal(t, []tc.Diagnostic{a}, subtract([]tc.Diagnostic{a, a}, []tc.Diagnostic{a}))
	assert.Empty(t, subtract([]tc.Diagnostic{a}, []tc.Diagnostic{a, b}))
}

// writeFakeTSC writes a shell script that answers like tsc.
func writeFakeTSC(t *testing.T, version string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tsc is a shell script")
	}
	script := `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "Version ` + version + `"
  exit 0
fi
config=""
noemit=0
edo_off=0
prev=""
for arg in "$@"; do
  [ "$prev" = "-p" ] && config="$arg"
  [ "$arg" = "--noEmit" ] && noemit=1
  [ "$prev" = "--emitDeclarationOnly" ] && [ "$arg" = "false" ] && edo_off=1
  prev="$arg"
done
if grep -q '"files": \[\]' "$config"; then
  echo "error TS18002: The 'files' list in config file '$config' is empty."
  exit 1
fi
if [ $noemit = 1 ] && [ $edo_off = 0 ] && grep -q '"emitDeclarationOnly": true' "$config"; then
  echo "error TS5053: Option 'emitDeclarationOnly' cannot be specified with option 'noEmit'."
  exit 1
fi
echo "src/a.ts(2,5): error TS2322: Type 'string' is not assignable to type 'number'."
if [ $noemit = 1 ]; then
  exit 2
fi
echo "error TS6059: File is not under rootDir."
echo "TSFILE: $PWD/dist/a.d.ts"
exit 2
`
	path := filepath.Join(t.TempDir(), "tsc")
	require.NoError(t, os.WriteFile(path, []byte(script), 0700)) //nolint:gosec // test script must be executable
	return path
}

func TestAcquire_FakeBinary(t *testing.T) {
	root := t.TempDir()
	bin := writeFakeTSC(t, "5.4.5")

	c, err := Acquire(context.Background(), tc.AcquireRequest{ProjectRoot: root, Path: bin, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	assert.Equal(t, "tsc", c.Name())
	assert.Equal(t, "5.4.5", c.Version())
}

func TestAcquire_Rejects(t *testing.T) {
	old := writeFakeTSC(t, "3.9.7")
	_, err := Acquire(context.Background(), tc.AcquireRequest{Path: old})
	assert.ErrorContains(t, err, "older than the supported minimum")

	_, err = Acquire(context.Background(), tc.AcquireRequest{Path: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestAcquire_PrefersProjectLocalBinary(t *testing.T) {
	root := t.TempDir()
	bin := writeFakeTSC(t, "5.0.2")
	local := filepath.Join(root, "node_modules", ".bin", "tsc")
	require.NoError(t, os.MkdirAll(filepath.Dir(local), 0750))
	data, err := os.ReadFile(bin) //nolint:gosec // G304: test fixture
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(local, data, 0700)) //nolint:gosec // test script must be executable

	got, err := locate(tc.AcquireRequest{ProjectRoot: root})
	require.NoError(t, err)
	assert.Equal(t, local, got)
}

func TestProgram_FakeBinary(t *testing.T) {
	root := t.TempDir()
	bin := writeFakeTSC(t, "5.4.5")
	c, err := Acquire(context.Background(), tc.AcquireRequest{ProjectRoot: root, Path: bin})
	require.NoError(t, err)

	opts := tc.OptionSet{
		tc.OptTarget:              tc.TargetESNext,
		tc.OptDeclaration:         true,
		tc.OptEmitDeclarationOnly: true,
		tc.OptIncremental:         false,
	}
	prog, err := c.CreateProgram(context.Background(), []string{"src/a.ts"}, opts)
	require.NoError(t, err)
	p := prog.(*Program)

	data, err := os.ReadFile(p.configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"target": "ESNext"`)
	assert.Contains(t, string(data), filepath.Join(root, "src", "a.ts"))

	pre, err := prog.PreEmitDiagnostics(context.Background())
	require.NoError(t, err)
	require.Len(t, pre, 1, "check-only run must not combine noEmit with emitDeclarationOnly")
	assert.Equal(t, 2322, pre[0].Code)

	res, err := prog.Emit(context.Background(), tc.EmitOptions{DeclarationsOnly: true})
	require.NoError(t, err)
	assert.False(t, res.EmitSkipped)
	require.Len(t, res.Diagnostics, 1, "pre-emit diagnostics are not repeated")
	assert.Equal(t, 6059, res.Diagnostics[0].Code)
	require.Len(t, res.EmittedFiles, 1)
	assert.Equal(t, "a.d.ts", filepath.Base(res.EmittedFiles[0]))

	require.NoError(t, p.Close())
	_, err = os.Stat(p.dir)
	assert.True(t, os.IsNotExist(err))
}

func TestProgram_NoRootFiles(t *testing.T) {
	root := t.TempDir()
	bin := writeFakeTSC(t, "5.4.5")
	c, err := Acquire(context.Background(), tc.AcquireRequest{ProjectRoot: root, Path: bin})
	require.NoError(t, err)

	opts := tc.OptionSet{tc.OptDeclaration: true, tc.OptEmitDeclarationOnly: true}
	prog, err := c.CreateProgram(context.Background(), nil, opts)
	require.NoError(t, err)

	pre, err := prog.PreEmitDiagnostics(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pre)

	res, err := prog.Emit(context.Background(), tc.EmitOptions{DeclarationsOnly: true})
	require.NoError(t, err)
	assert.False(t, res.EmitSkipped)
	assert.Empty(t, res.Diagnostics)
	assert.Empty(t, res.EmittedFiles)
	assert.NoError(t, prog.(*Program).Close())
}
