package cli

import (
	"github.com/spf13/cobra"
)

func hasSubcommand(cmds []*cobra.Command, name string) bool {
	for _, c := range cmds {
		if c.Name() == name {
			return true
		}
	}
	return false
}
