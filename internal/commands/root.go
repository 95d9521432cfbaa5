package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/greenbook-dev/greenbook/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands
// registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "greenbook",
		Short:   "Back-office books for a landscaping business",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newInvoiceCommand())
	rootCmd.AddCommand(newVendorCommand())

	return rootCmd
}
