// Package toolchain defines the provider interfaces tsbridge orchestrates.
//
// A compiler provider parses tsconfig.json, normalizes compiler options,
// enumerates sources and builds programs that emit declaration files. A
// transformer provider strips types from a single source file without
// checking it. Both are optional: implementations register an acquirer
// with RegisterCompiler or RegisterTransformer, and the loader in
// internal/toolchain decides at startup whether each one is available.
//
// The package also carries the shared diagnostic model and its text
// rendering, so every consumer formats provider output the same way.
package toolchain
