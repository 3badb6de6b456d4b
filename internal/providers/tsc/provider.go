// Package tsc provides a compiler backed by an installed TypeScript
// compiler binary. Configuration parsing and option normalization happen
// in-process; checking and emission run the binary.
package tsc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// Name is the registry name of this provider.
const Name = "tsc"

// MinVersion is the oldest compiler with NodeNext module resolution.
const MinVersion = "4.7.0"

func init() {
	tc.RegisterCompiler(Name, Acquire)
}

// Compiler drives a tsc binary.
type Compiler struct {
	bin     string
	version string
	root    string
	logger  *slog.Logger
}

// Acquire locates tsc, checks its version and returns a Compiler.
// Search order: req.Path, <root>/node_modules/.bin/tsc, then $PATH.
func Acquire(ctx context.Context, req tc.AcquireRequest) (tc.Compiler, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	bin, err := locate(req)
	if err != nil {
		return nil, err
	}

	out, err := exec.CommandContext(ctx, bin, "--version").Output() //nolint:gosec // G204: bin is a located compiler binary
	if err != nil {
		return nil, fmt.Errorf("failed to run %s --version: %w", bin, err)
	}
	version, err := parseVersion(string(out))
	if err != nil {
		return nil, err
	}
	if err := checkVersion(version); err != nil {
		return nil, err
	}

	logger.Debug("found tsc", "path", bin, "version", version)
	return &Compiler{bin: bin, version: version, root: req.ProjectRoot, logger: logger}, nil
}

func locate(req tc.AcquireRequest) (string, error) {
	if req.Path != "" {
		if _, err := os.Stat(req.Path); err != nil {
			return "", fmt.Errorf("compiler path %s: %w", req.Path, err)
		}
		return req.Path, nil
	}
	if req.ProjectRoot != "" {
		local := filepath.Join(req.ProjectRoot, "node_modules", ".bin", "tsc")
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}
	bin, err := exec.LookPath("tsc")
	if err != nil {
		return "", fmt.Errorf("tsc not installed: %w", err)
	}
	return bin, nil
}

// parseVersion extracts "5.4.5" from "Version 5.4.5".
func parseVersion(out string) (string, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", errors.New("empty tsc --version output")
	}
	v := fields[len(fields)-1]
	if !semver.IsValid("v" + v) {
		return "", fmt.Errorf("unrecognized tsc version %q", strings.TrimSpace(out))
	}
	return v, nil
}

func checkVersion(v string) error {
	if semver.Compare("v"+v, "v"+MinVersion) < 0 {
		return fmt.Errorf("tsc %s is older than the supported minimum %s", v, MinVersion)
	}
	return nil
}

// Name implements toolchain.Compiler.
func (c *Compiler) Name() string { return Name }

// Version implements toolchain.Compiler.
func (c *Compiler) Version() string { return c.version }

// run executes tsc in the project root and returns its combined output
// and exit code. Exit codes 1 and 2 mean diagnostics were reported.
func (c *Compiler) run(ctx context.Context, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...) //nolint:gosec // G204: bin is a located compiler binary
	cmd.Dir = c.root
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	c.logger.Debug("running tsc", "args", args)
	err := cmd.Run()
	if err == nil {
		return out.Bytes(), 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out.Bytes(), exitErr.ExitCode(), nil
	}
	return nil, -1, fmt.Errorf("failed to run tsc: %w", err)
}
