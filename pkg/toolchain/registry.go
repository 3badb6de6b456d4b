package toolchain

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// AcquireRequest carries what an acquirer needs to locate its provider.
type AcquireRequest struct {
	ProjectRoot string
	// Path is an explicit binary or package location; empty means search.
	Path   string
	Logger *slog.Logger
}

// CompilerAcquirer locates and validates a compiler provider.
// It returns an error when the provider is missing or incompatible.
type CompilerAcquirer func(ctx context.Context, req AcquireRequest) (Compiler, error)

// TransformerAcquirer locates and validates a transformer provider.
type TransformerAcquirer func(ctx context.Context, req AcquireRequest) (Transformer, error)

var (
	registryMu   sync.RWMutex
	compilers    = make(map[string]CompilerAcquirer)
	transformers = make(map[string]TransformerAcquirer)
)

// RegisterCompiler adds a compiler acquirer to the registry.
// Called by provider implementations in their init() functions.
func RegisterCompiler(name string, acquire CompilerAcquirer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	compilers[name] = acquire
}

// RegisterTransformer adds a transformer acquirer to the registry.
func RegisterTransformer(name string, acquire TransformerAcquirer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	transformers[name] = acquire
}

// LookupCompiler retrieves a compiler acquirer by name.
func LookupCompiler(name string) (CompilerAcquirer, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if f, ok := compilers[name]; ok {
		return f, nil
	}
	return nil, &UnknownProviderError{Kind: "compiler", Name: name, Available: sortedKeys(compilers)}
}

// LookupTransformer retrieves a transformer acquirer by name.
func LookupTransformer(name string) (TransformerAcquirer, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if f, ok := transformers[name]; ok {
		return f, nil
	}
	return nil, &UnknownProviderError{Kind: "transformer", Name: name, Available: sortedKeys(transformers)}
}

// ListCompilers returns all registered compiler names (sorted).
func ListCompilers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return sortedKeys(compilers)
}

// ListTransformers returns all registered transformer names (sorted).
func ListTransformers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return sortedKeys(transformers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
