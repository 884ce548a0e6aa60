package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/mesh"
	"github.com/pi-messenger/messenger/internal/style"
)

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: GroupMesh,
	Short:   "List every other active agent in the mesh",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		views, err := c.List()
		if err != nil {
			return err
		}
		printResult(views, func() {
			if len(views) == 0 {
				fmt.Println(style.Dim.Render("no other agents registered"))
				return
			}
			t := style.NewTable(
				style.Column{Name: "NAME", Width: 16},
				style.Column{Name: "STATUS", Width: 8},
				style.Column{Name: "BRANCH", Width: 16},
				style.Column{Name: "CWD", Width: 40},
			)
			for _, v := range views {
				t.AddRow(v.Name, style.StatusStyle(string(v.Status)).Render(string(v.Status)), v.GitBranch, v.Cwd)
			}
			fmt.Print(t.Render())
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
