package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/mesh"
	"github.com/pi-messenger/messenger/internal/style"
)

var (
	joinName        string
	joinModel       string
	joinSpecPath    string
	joinHumanDriven bool
)

var joinCmd = &cobra.Command{
	Use:     "join",
	GroupID: GroupMesh,
	Short:   "Register this process in the mesh",
	Long: `Register this process in the mesh rooted at the current project
directory. With no --name a fresh name is generated from the configured
theme. Re-running join from the same project directory while already
registered is an error — use "pi-messenger status" to check first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		reg, err := c.Join(mesh.JoinParams{
			Name:        joinName,
			Model:       joinModel,
			SpecPath:    joinSpecPath,
			HumanDriven: joinHumanDriven,
		})
		if err != nil {
			return err
		}
		printResult(reg, func() {
			fmt.Println(style.Bold.Render(reg.Name), style.Dim.Render("joined "+reg.Cwd))
		})
		return nil
	},
}

func init() {
	joinCmd.Flags().StringVar(&joinName, "name", "", "explicit agent name (generated if omitted)")
	joinCmd.Flags().StringVar(&joinModel, "model", "", "model identifier to record on the registration")
	joinCmd.Flags().StringVar(&joinSpecPath, "spec", "", "PRD/spec path this agent is working against")
	joinCmd.Flags().BoolVar(&joinHumanDriven, "human", false, "mark this registration as human-driven")
	rootCmd.AddCommand(joinCmd)
}
