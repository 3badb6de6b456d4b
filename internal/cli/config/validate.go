package config

import (
	"fmt"
	"slices"
	"strings"
)

var outputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Compiler == "" {
		return fmt.Errorf("compiler is required")
	}
	if c.Transformer == "" {
		return fmt.Errorf("transformer is required")
	}
	if c.OutputFormat != "" && !slices.Contains(outputFormats, strings.ToLower(c.OutputFormat)) {
		return fmt.Errorf("unknown output format %q\nHint: use one of %s", c.OutputFormat, strings.Join(outputFormats, ", "))
	}
	return nil
}
