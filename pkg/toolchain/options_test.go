package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionSet_MergePrecedence(t *testing.T) {
	base := OptionSet{OptTarget: TargetLatest, OptOutDir: "/p/dist", OptDeclaration: true}
	over := OptionSet{OptOutDir: "/p/types"}

	merged := base.Merge(over)

	assert.Equal(t, "/p/types", merged[OptOutDir])
	assert.Equal(t, TargetLatest, merged[OptTarget])
	assert.Equal(t, "/p/dist", base[OptOutDir], "merge must not mutate the receiver")
}

func TestOptionSet_WithoutIncremental(t *testing.T) {
	tests := []struct {
		name string
		in   OptionSet
	}{
		{name: "nil", in: nil},
		{name: "unset", in: OptionSet{OptTarget: TargetES2020}},
		{name: "true", in: OptionSet{OptIncremental: true}},
		{name: "string value", in: OptionSet{OptIncremental: "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.in.WithoutIncremental()
			assert.Equal(t, false, out[OptIncremental])
			assert.False(t, out.Bool(OptIncremental))
		})
	}
}

func TestOptionSet_Accessors(t *testing.T) {
	o := OptionSet{
		OptTarget:           TargetES2020,
		OptModuleResolution: ResolutionNodeNext,
		OptOutDir:           "dist",
		OptDeclaration:      true,
		OptStrict:           "yes",
	}

	assert.Equal(t, "ES2020", o.String(OptTarget))
	assert.Equal(t, "NodeNext", o.String(OptModuleResolution))
	assert.Equal(t, "dist", o.String(OptOutDir))
	assert.Equal(t, "", o.String(OptDeclaration))
	assert.True(t, o.Bool(OptDeclaration))
	assert.False(t, o.Bool(OptStrict))
	assert.Equal(t, []string{OptDeclaration, OptModuleResolution, OptOutDir, OptStrict, OptTarget}, o.Keys())
}

func TestParsedConfig_CompilerOptions(t *testing.T) {
	var nilCfg *ParsedConfig
	assert.Empty(t, nilCfg.CompilerOptions())

	cfg := &ParsedConfig{Raw: map[string]any{"compilerOptions": map[string]any{"target": "ES2020"}}}
	assert.Equal(t, "ES2020", cfg.CompilerOptions()["target"])

	wrongType := &ParsedConfig{Raw: map[string]any{"compilerOptions": []any{}}}
	assert.Empty(t, wrongType.CompilerOptions())
}
