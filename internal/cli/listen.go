package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/mesh"
)

var listenCmd = &cobra.Command{
	Use:     "listen",
	GroupID: GroupMesh,
	Short:   "Tail this agent's inbox, printing messages as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return c.Listen(ctx, func(text string) { fmt.Print(text) })
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
}
