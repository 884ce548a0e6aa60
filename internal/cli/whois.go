package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/mesh"
	"github.com/pi-messenger/messenger/internal/style"
)

var whoisCmd = &cobra.Command{
	Use:     "whois <agent>",
	GroupID: GroupMesh,
	Short:   "Show one agent's registration and presence in detail",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		view, err := c.Whois(args[0])
		if err != nil {
			return err
		}
		printResult(view, func() {
			fmt.Printf("%s  %s\n", style.Bold.Render(view.Name), style.StatusStyle(string(view.Status)).Render(string(view.Status)))
			fmt.Println(style.Dim.Render(view.Cwd))
			if view.GitBranch != "" {
				fmt.Println(style.Dim.Render("branch: " + view.GitBranch))
			}
			if view.Model != "" {
				fmt.Println(style.Dim.Render("model: " + view.Model))
			}
			if view.StatusMessage != "" {
				fmt.Println(view.StatusMessage)
			}
			for _, r := range view.Reservations {
				suffix := ""
				if r.IsDir {
					suffix = "/"
				}
				fmt.Printf("reserved: %s%s\n", r.Path, suffix)
			}
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoisCmd)
}
