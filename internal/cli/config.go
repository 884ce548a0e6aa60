package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/mesh"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: GroupDiag,
	Short:   "Show the resolved mesh configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		printResult(c.Cfg, func() { fmt.Printf("%+v\n", c.Cfg) })
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
