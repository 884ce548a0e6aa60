package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/mesh"
	"github.com/pi-messenger/messenger/internal/style"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: GroupMesh,
	Short:   "Show this agent's own registration and presence",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		view, err := c.Status()
		if err != nil {
			return err
		}
		printResult(view, func() {
			fmt.Printf("%s  %s\n", style.Bold.Render(view.Name), style.StatusStyle(string(view.Status)).Render(string(view.Status)))
			fmt.Println(style.Dim.Render(view.Cwd))
			if view.SpecPath != "" {
				fmt.Println(style.Dim.Render("spec: " + view.SpecPath))
			}
		})
		return nil
	},
}

var setStatusCmd = &cobra.Command{
	Use:     "set-status <message>",
	GroupID: GroupMesh,
	Short:   "Set this agent's free-form status message",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		if err := c.SetStatus(args[0]); err != nil {
			return err
		}
		printResult(map[string]bool{"set": true}, func() { fmt.Println("status set") })
		return nil
	},
}

var specCmd = &cobra.Command{
	Use:     "spec <path>",
	GroupID: GroupMesh,
	Short:   "Point this agent at the spec its swarm claims group under",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		if err := c.SetSpec(args[0]); err != nil {
			return err
		}
		printResult(map[string]bool{"set": true}, func() { fmt.Println("spec set") })
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:     "rename <new-name>",
	GroupID: GroupMesh,
	Short:   "Rename this agent, keeping its inbox and session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		if err := c.Rename(args[0]); err != nil {
			return err
		}
		printResult(map[string]string{"name": args[0]}, func() {
			fmt.Printf("now known as %s\n", args[0])
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, setStatusCmd, specCmd, renameCmd)
}
