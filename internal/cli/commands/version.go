package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	tc "github.com/leapstack-labs/tsbridge/pkg/toolchain"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display tsbridge version information and the registered toolchain providers.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tsbridge v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Compilers: %v\n", tc.ListCompilers())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Transformers: %v\n", tc.ListTransformers())
		},
	}
}
