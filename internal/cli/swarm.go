package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/mesh"
	"github.com/pi-messenger/messenger/internal/swarm"
)

var swarmCmd = &cobra.Command{
	Use:     "swarm",
	GroupID: GroupMesh,
	Short:   "Claim, unclaim, complete, and list tasks off a shared spec",
	RunE:    requireSubcommand,
}

var swarmReason string
var swarmNotes string

func dispatchSwarm(op, spec, taskID string, extra map[string]any) (any, error) {
	c, err := mesh.New("", cwd())
	if err != nil {
		return nil, err
	}
	params := map[string]any{"spec": spec, "taskId": taskID}
	for k, v := range extra {
		params[k] = v
	}
	return c.Router.Dispatch("swarm."+op, params)
}

var swarmClaimCmd = &cobra.Command{
	Use:   "claim <spec> <taskId>",
	Short: "Claim a task for this agent",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := dispatchSwarm("claim", args[0], args[1], map[string]any{"reason": swarmReason}); err != nil {
			return err
		}
		printResult(map[string]bool{"claimed": true}, func() { fmt.Printf("claimed %s\n", args[1]) })
		return nil
	},
}

var swarmUnclaimCmd = &cobra.Command{
	Use:   "unclaim <spec> <taskId>",
	Short: "Release this agent's claim on a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := dispatchSwarm("unclaim", args[0], args[1], nil); err != nil {
			return err
		}
		printResult(map[string]bool{"unclaimed": true}, func() { fmt.Printf("unclaimed %s\n", args[1]) })
		return nil
	},
}

var swarmCompleteCmd = &cobra.Command{
	Use:   "complete <spec> <taskId>",
	Short: "Mark a claimed task complete",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := dispatchSwarm("complete", args[0], args[1], map[string]any{"notes": swarmNotes}); err != nil {
			return err
		}
		printResult(map[string]bool{"completed": true}, func() { fmt.Printf("completed %s\n", args[1]) })
		return nil
	},
}

var swarmListCmd = &cobra.Command{
	Use:   "list <spec>",
	Short: "List every claim recorded against a spec",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchSwarm("list", args[0], "", nil)
		if err != nil {
			return err
		}
		claims, _ := result.(map[string]swarm.Claim)
		printResult(claims, func() {
			for taskID, claim := range claims {
				fmt.Printf("%-16s %s\n", taskID, claim.Agent)
			}
		})
		return nil
	},
}

var swarmIsCompleteCmd = &cobra.Command{
	Use:   "is-complete <spec> <taskId>",
	Short: "Check whether a task has a terminal completion",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchSwarm("isComplete", args[0], args[1], nil)
		if err != nil {
			return err
		}
		printResult(result, func() { fmt.Println(result) })
		return nil
	},
}

func init() {
	swarmClaimCmd.Flags().StringVar(&swarmReason, "reason", "", "why this task is being claimed")
	swarmCompleteCmd.Flags().StringVar(&swarmNotes, "notes", "", "completion notes")
	swarmCmd.AddCommand(swarmClaimCmd, swarmUnclaimCmd, swarmCompleteCmd, swarmListCmd, swarmIsCompleteCmd)
	rootCmd.AddCommand(swarmCmd)
}
