package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// requireSubcommand is RunE for parent commands that only group
// subcommands and do nothing themselves.
func requireSubcommand(cmd *cobra.Command, args []string) error {
	return fmt.Errorf("%q requires a subcommand, see --help", cmd.CommandPath())
}
