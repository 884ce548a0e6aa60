package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/mesh"
)

var leaveCmd = &cobra.Command{
	Use:     "leave",
	GroupID: GroupMesh,
	Short:   "Unregister this process from the mesh",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		if err := c.Leave(); err != nil {
			return err
		}
		printResult(map[string]bool{"left": true}, func() {
			fmt.Println("left the mesh")
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(leaveCmd)
}
