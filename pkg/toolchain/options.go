package toolchain

import (
	"maps"
	"sort"
)

// Well-known compiler option names, as spelled in tsconfig.json.
const (
	OptTarget              = "target"
	OptModule              = "module"
	OptModuleResolution    = "moduleResolution"
	OptRootDir             = "rootDir"
	OptOutDir              = "outDir"
	OptDeclaration         = "declaration"
	OptEmitDeclarationOnly = "emitDeclarationOnly"
	OptDeclarationDir      = "declarationDir"
	OptAllowJS             = "allowJs"
	OptCheckJS             = "checkJs"
	OptSkipLibCheck        = "skipLibCheck"
	OptIncremental         = "incremental"
	OptComposite           = "composite"
	OptStrict              = "strict"
	OptBaseURL             = "baseUrl"
	OptTsBuildInfoFile     = "tsBuildInfoFile"
)

// ScriptTarget is a canonical language level.
type ScriptTarget string

// Script targets accepted by the compiler, oldest first.
const (
	TargetES3    ScriptTarget = "ES3"
	TargetES5    ScriptTarget = "ES5"
	TargetES2015 ScriptTarget = "ES2015"
	TargetES2016 ScriptTarget = "ES2016"
	TargetES2017 ScriptTarget = "ES2017"
	TargetES2018 ScriptTarget = "ES2018"
	TargetES2019 ScriptTarget = "ES2019"
	TargetES2020 ScriptTarget = "ES2020"
	TargetES2021 ScriptTarget = "ES2021"
	TargetES2022 ScriptTarget = "ES2022"
	TargetES2023 ScriptTarget = "ES2023"
	TargetESNext ScriptTarget = "ESNext"

	// TargetLatest is the newest level the compiler supports.
	TargetLatest = TargetESNext
)

// ModuleKind is a canonical module system or resolution strategy name.
type ModuleKind string

// Module kinds and resolution strategies.
const (
	ModuleCommonJS ModuleKind = "CommonJS"
	ModuleES2015   ModuleKind = "ES2015"
	ModuleES2020   ModuleKind = "ES2020"
	ModuleES2022   ModuleKind = "ES2022"
	ModuleESNext   ModuleKind = "ESNext"
	ModuleNode16   ModuleKind = "Node16"
	ModuleNodeNext ModuleKind = "NodeNext"
	ModulePreserve ModuleKind = "Preserve"

	ResolutionNode10   ModuleKind = "Node10"
	ResolutionNode16   ModuleKind = "Node16"
	ResolutionNodeNext ModuleKind = "NodeNext"
	ResolutionBundler  ModuleKind = "Bundler"
	ResolutionClassic  ModuleKind = "Classic"
)

// OptionSet maps compiler option names to normalized values.
type OptionSet map[string]any

// Clone returns a shallow copy. Nil clones to an empty set.
func (o OptionSet) Clone() OptionSet {
	out := make(OptionSet, len(o))
	maps.Copy(out, o)
	return out
}

// Merge returns a new set with every entry of over applied on top of o.
func (o OptionSet) Merge(over OptionSet) OptionSet {
	out := o.Clone()
	maps.Copy(out, over)
	return out
}

// Bool reports the boolean value of key, false when unset or not a bool.
func (o OptionSet) Bool(key string) bool {
	v, _ := o[key].(bool)
	return v
}

// String reports the string value of key. Typed string values such as
// ScriptTarget are returned as their underlying string.
func (o OptionSet) String(key string) string {
	switch v := o[key].(type) {
	case string:
		return v
	case ScriptTarget:
		return string(v)
	case ModuleKind:
		return string(v)
	}
	return ""
}

// Keys returns option names in sorted order.
func (o OptionSet) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WithoutIncremental returns a copy with incremental mode forced off.
// Declaration emission is always a one-shot build.
func (o OptionSet) WithoutIncremental() OptionSet {
	out := o.Clone()
	out[OptIncremental] = false
	return out
}
