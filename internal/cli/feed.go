package cli

import (
	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/mesh"
	tuifeed "github.com/pi-messenger/messenger/internal/tui/feed"
)

var feedCmd = &cobra.Command{
	Use:     "feed",
	GroupID: GroupDiag,
	Short:   "Watch the mesh activity feed live in a terminal viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return tuifeed.Run(mesh.ResolveBaseDir())
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)
}
