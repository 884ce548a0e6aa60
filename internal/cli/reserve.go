package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/mesh"
)

var reserveCmd = &cobra.Command{
	Use:     "reserve",
	GroupID: GroupMesh,
	Short:   "Declare, release, or check path reservations",
	RunE:    requireSubcommand,
}

var reserveReason string

var reserveDeclareCmd = &cobra.Command{
	Use:   "declare <path>",
	Short: "Reserve a path for exclusive editing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		if err := c.Declare(args[0], reserveReason); err != nil {
			return err
		}
		printResult(map[string]bool{"declared": true}, func() {
			fmt.Printf("reserved %s\n", args[0])
		})
		return nil
	},
}

var reserveReleaseCmd = &cobra.Command{
	Use:   "release <path>",
	Short: "Release a previously declared reservation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		if err := c.Release(args[0]); err != nil {
			return err
		}
		printResult(map[string]bool{"released": true}, func() {
			fmt.Printf("released %s\n", args[0])
		})
		return nil
	},
}

var reserveCheckCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Check whether a path is reserved by another agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := mesh.New("", cwd())
		if err != nil {
			return err
		}
		conflict, err := c.CheckReservation(args[0])
		if err != nil {
			return err
		}
		printResult(conflict, func() {
			if conflict == nil {
				fmt.Println("no conflict")
				return
			}
			fmt.Println(conflict.Error())
		})
		return nil
	},
}

func init() {
	reserveDeclareCmd.Flags().StringVar(&reserveReason, "reason", "", "why this path is reserved")
	reserveCmd.AddCommand(reserveDeclareCmd, reserveReleaseCmd, reserveCheckCmd)
	rootCmd.AddCommand(reserveCmd)
}
