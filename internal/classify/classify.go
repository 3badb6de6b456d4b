// Package classify decides whether a project is type-checked.
package classify

import (
	"io/fs"
	"os"

	"github.com/leapstack-labs/tsbridge/internal/projectconfig"
	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// Prerequisite identifies one requirement of a type-checked project.
type Prerequisite string

// Prerequisites in reporting order.
const (
	PrereqConfigFile  Prerequisite = "tsconfig"
	PrereqCompiler    Prerequisite = "compiler"
	PrereqTransformer Prerequisite = "transformer"
)

// Order is the fixed order in which missing prerequisites are reported.
var Order = []Prerequisite{PrereqConfigFile, PrereqCompiler, PrereqTransformer}

// Providers yields the loaded provider handles.
// *toolchain.Loader satisfies it.
type Providers interface {
	Compiler() (tc.Compiler, bool)
	Transformer() (tc.Transformer, bool)
}

// Result is the outcome of Classify.
type Result struct {
	TypeChecked bool
	Missing     []Prerequisite
}

// IsMissing reports whether p is among the missing prerequisites.
func (r Result) IsMissing(p Prerequisite) bool {
	for _, m := range r.Missing {
		if m == p {
			return true
		}
	}
	return false
}

var hints = map[Prerequisite]string{
	PrereqConfigFile:  "Create a tsconfig.json in the project root (tsbridge init writes one).",
	PrereqCompiler:    "Install a TypeScript compiler: npm install --save-dev typescript",
	PrereqTransformer: "The esbuild transformer failed to initialize; rerun with --verbose for details.",
}

// Hint returns an actionable suggestion for a missing prerequisite.
func Hint(p Prerequisite) string {
	return hints[p]
}

// LiteHint explains missing providers when lite mode skipped loading them.
const LiteHint = "Lite mode skips loading the toolchain; rerun without --lite or set lite: false in tsbridge.yaml."

// HintFor is Hint, except that providers missing in lite mode get LiteHint.
func HintFor(p Prerequisite, lite bool) string {
	if lite && p != PrereqConfigFile {
		return LiteHint
	}
	return Hint(p)
}

// Classifier answers whether a project qualifies as type-checked.
type Classifier struct {
	fsys      fs.FS
	providers Providers
}

// New creates a classifier for the project rooted at root. A nil fsys
// reads the real file system.
func New(root string, fsys fs.FS, providers Providers) *Classifier {
	if fsys == nil {
		fsys = os.DirFS(root)
	}
	return &Classifier{fsys: fsys, providers: providers}
}

// Classify checks the configuration file and both provider handles.
// It has no side effects and is safe for concurrent use.
func (c *Classifier) Classify() Result {
	present := map[Prerequisite]bool{
		PrereqConfigFile: projectconfig.Exists(c.fsys),
	}
	if c.providers != nil {
		_, present[PrereqCompiler] = c.providers.Compiler()
		_, present[PrereqTransformer] = c.providers.Transformer()
	}

	var missing []Prerequisite
	for _, p := range Order {
		if !present[p] {
			missing = append(missing, p)
		}
	}
	return Result{TypeChecked: len(missing) == 0, Missing: missing}
}
