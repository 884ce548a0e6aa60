package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/mesh"
)

var sendReplyTo string

var sendCmd = &cobra.Command{
	Use:     "send <agent> <text>",
	GroupID: GroupMesh,
	Short:   "Deliver a message to another agent's inbox",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		if err := c.Send(args[0], args[1], sendReplyTo); err != nil {
			return err
		}
		printResult(map[string]bool{"sent": true}, func() {
			fmt.Printf("sent to %s\n", args[0])
		})
		return nil
	},
}

var broadcastCmd = &cobra.Command{
	Use:     "broadcast <text>",
	GroupID: GroupMesh,
	Short:   "Deliver a message to every other active agent",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		result, err := c.Broadcast(args[0])
		if err != nil {
			return err
		}
		printResult(result, func() {
			fmt.Printf("sent to %d agent(s)\n", len(result.Sent))
			for name, kind := range result.Failed {
				fmt.Printf("failed for %s: %s\n", name, kind)
			}
		})
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendReplyTo, "reply-to", "", "message id this message replies to")
	rootCmd.AddCommand(sendCmd, broadcastCmd)
}
