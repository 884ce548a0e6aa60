// Package cli is the pi-messenger command-line front end. Each
// subcommand is a thin wrapper over an internal/mesh.Coordinator: the
// crew, task and swarm subcommands go through its router's string-keyed
// Dispatch, the same surface host-runtime callers use, and the other
// subcommands call the Coordinator's Go methods directly.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	GroupMesh = "mesh"
	GroupCrew = "crew"
	GroupDiag = "diag"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "pi-messenger",
	Short: "File-based coordination fabric for parallel coding agents",
	Long: `pi-messenger lets multiple agent processes working the same
project discover each other, exchange messages, reserve file paths, and
claim tasks off a shared PRD-derived task list — all through plain
files under a shared base directory, no daemon required.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupMesh, Title: "Mesh commands:"},
		&cobra.Group{ID: GroupCrew, Title: "Crew commands:"},
		&cobra.Group{ID: GroupDiag, Title: "Diagnostics:"},
	)
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output machine-readable JSON")
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// printResult renders v as JSON when --json was passed, otherwise hands
// off to render for human-facing text.
func printResult(v any, render func()) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	render()
}

func cwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
