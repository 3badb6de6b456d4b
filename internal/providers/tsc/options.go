package tsc

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

type optionKind int

const (
	kindBool optionKind = iota
	kindString
	kindNumber
	kindPath
	kindPathList
	kindStringList
	kindTarget
	kindModule
	kindResolution
	kindPaths
)

func (k optionKind) typeName() string {
	switch k {
	case kindBool:
		return "boolean"
	case kindNumber:
		return "number"
	case kindPathList, kindStringList:
		return "Array"
	case kindPaths:
		return "object"
	default:
		return "string"
	}
}

// schema lists the options this provider validates. Other options pass
// through untouched and are validated by tsc itself.
var schema = map[string]optionKind{
	tc.OptAllowJS:                      kindBool,
	tc.OptCheckJS:                      kindBool,
	tc.OptDeclaration:                  kindBool,
	"declarationMap":                   kindBool,
	tc.OptEmitDeclarationOnly:          kindBool,
	tc.OptComposite:                    kindBool,
	tc.OptIncremental:                  kindBool,
	tc.OptStrict:                       kindBool,
	"noImplicitAny":                    kindBool,
	"strictNullChecks":                 kindBool,
	tc.OptSkipLibCheck:                 kindBool,
	"sourceMap":                        kindBool,
	"noEmit":                           kindBool,
	"noEmitOnError":                    kindBool,
	"esModuleInterop":                  kindBool,
	"allowSyntheticDefaultImports":     kindBool,
	"isolatedModules":                  kindBool,
	"resolveJsonModule":                kindBool,
	"stripInternal":                    kindBool,
	"removeComments":                   kindBool,
	"forceConsistentCasingInFileNames": kindBool,
	"verbatimModuleSyntax":             kindBool,
	"allowImportingTsExtensions":       kindBool,
	"noUnusedLocals":                   kindBool,
	"noUnusedParameters":               kindBool,
	"experimentalDecorators":           kindBool,
	"emitDecoratorMetadata":            kindBool,
	"jsx":                              kindString,
	"newLine":                          kindString,
	"maxNodeModuleJsDepth":             kindNumber,
	tc.OptRootDir:                      kindPath,
	tc.OptOutDir:                       kindPath,
	tc.OptDeclarationDir:               kindPath,
	tc.OptBaseURL:                      kindPath,
	tc.OptTsBuildInfoFile:              kindPath,
	"outFile":                          kindPath,
	"rootDirs":                         kindPathList,
	"typeRoots":                        kindPathList,
	"lib":                              kindStringList,
	"types":                            kindStringList,
	tc.OptTarget:                       kindTarget,
	tc.OptModule:                       kindModule,
	tc.OptModuleResolution:             kindResolution,
	"paths":                            kindPaths,
}

var targetValues = map[string]tc.ScriptTarget{
	"es3":    tc.TargetES3,
	"es5":    tc.TargetES5,
	"es6":    tc.TargetES2015,
	"es2015": tc.TargetES2015,
	"es2016": tc.TargetES2016,
	"es2017": tc.TargetES2017,
	"es2018": tc.TargetES2018,
	"es2019": tc.TargetES2019,
	"es2020": tc.TargetES2020,
	"es2021": tc.TargetES2021,
	"es2022": tc.TargetES2022,
	"es2023": tc.TargetES2023,
	"esnext": tc.TargetESNext,
}

var moduleValues = map[string]tc.ModuleKind{
	"none":     "None",
	"commonjs": tc.ModuleCommonJS,
	"amd":      "AMD",
	"umd":      "UMD",
	"system":   "System",
	"es6":      tc.ModuleES2015,
	"es2015":   tc.ModuleES2015,
	"es2020":   tc.ModuleES2020,
	"es2022":   tc.ModuleES2022,
	"esnext":   tc.ModuleESNext,
	"node16":   tc.ModuleNode16,
	"nodenext": tc.ModuleNodeNext,
	"preserve": tc.ModulePreserve,
}

var resolutionValues = map[string]tc.ModuleKind{
	"node":     tc.ResolutionNode10,
	"node10":   tc.ResolutionNode10,
	"node16":   tc.ResolutionNode16,
	"nodenext": tc.ResolutionNodeNext,
	"bundler":  tc.ResolutionBundler,
	"classic":  tc.ResolutionClassic,
}

// ConvertCompilerOptions implements toolchain.Compiler.
func (c *Compiler) ConvertCompilerOptions(raw map[string]any, basePath string) (tc.OptionSet, []tc.Diagnostic) {
	return convertOptions(raw, basePath)
}

func convertOptions(raw map[string]any, basePath string) (tc.OptionSet, []tc.Diagnostic) {
	out := make(tc.OptionSet, len(raw))
	var diags []tc.Diagnostic

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// "paths" substitutions are relative to baseUrl when it is set.
	pathsBase := basePath
	if s, ok := raw[tc.OptBaseURL].(string); ok && s != "" {
		pathsBase = resolvePath(s, basePath)
	}

	for _, name := range keys {
		value := raw[name]
		kind, known := schema[name]
		if !known {
			out[name] = value
			continue
		}
		base := basePath
		if kind == kindPaths {
			base = pathsBase
		}
		converted, d := convertValue(name, kind, value, base)
		if d != nil {
			diags = append(diags, *d)
			continue
		}
		out[name] = converted
	}
	return out, diags
}

func convertValue(name string, kind optionKind, value any, basePath string) (any, *tc.Diagnostic) {
	switch kind {
	case kindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case kindNumber:
		if n, ok := value.(float64); ok {
			return n, nil
		}
	case kindString:
		if s, ok := value.(string); ok {
			return strings.ToLower(s), nil
		}
	case kindPath:
		if s, ok := value.(string); ok {
			return resolvePath(s, basePath), nil
		}
	case kindPathList, kindStringList:
		items, ok := stringList(value)
		if !ok {
			break
		}
		if kind == kindPathList {
			for i, s := range items {
				items[i] = resolvePath(s, basePath)
			}
		}
		return items, nil
	case kindTarget:
		return enumValue(name, value, targetValues)
	case kindModule:
		return enumValue(name, value, moduleValues)
	case kindResolution:
		return enumValue(name, value, resolutionValues)
	case kindPaths:
		return convertPaths(value, basePath)
	}
	return nil, typeError(name, kind)
}

func typeError(name string, kind optionKind) *tc.Diagnostic {
	d := tc.NewDiagnostic(tc.CategoryError, 5024, nil,
		fmt.Sprintf("Compiler option '%s' requires a value of type %s.", name, kind.typeName()))
	return &d
}

func enumValue[T ~string](name string, value any, values map[string]T) (any, *tc.Diagnostic) {
	s, ok := value.(string)
	if !ok {
		return nil, typeError(name, kindString)
	}
	if v, ok := values[strings.ToLower(s)]; ok {
		return v, nil
	}
	allowed := make([]string, 0, len(values))
	for k := range values {
		allowed = append(allowed, "'"+k+"'")
	}
	sort.Strings(allowed)
	d := tc.NewDiagnostic(tc.CategoryError, 6046, nil,
		fmt.Sprintf("Argument for '--%s' option must be: %s.", name, strings.Join(allowed, ", ")))
	return nil, &d
}

// convertPaths anchors "paths" mappings to basePath (the resolved baseUrl,
// or the config directory without one), since the program is
// compiled from a generated config file in another directory.
func convertPaths(value any, basePath string) (any, *tc.Diagnostic) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, typeError("paths", kindPaths)
	}
	out := make(map[string]any, len(m))
	for pattern, targets := range m {
		items, ok := stringList(targets)
		if !ok {
			d := tc.NewDiagnostic(tc.CategoryError, 5063, nil,
				fmt.Sprintf("Substitutions for pattern '%s' should be an array.", pattern))
			return nil, &d
		}
		for i, s := range items {
			items[i] = resolvePath(s, basePath)
		}
		out[pattern] = items
	}
	return out, nil
}

func stringList(value any) ([]string, bool) {
	list, ok := value.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func resolvePath(path, basePath string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(basePath, path)
}
