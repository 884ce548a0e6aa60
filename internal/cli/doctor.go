package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/doctor"
	"github.com/pi-messenger/messenger/internal/mesh"
	"github.com/pi-messenger/messenger/internal/style"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: GroupDiag,
	Short:   "Run read-only health checks against the mesh",
	Long: `Run diagnostic checks against the mesh base directory and the
current project's crew state.

Checks:
  - dead-registrations     Registry entries whose process is no longer running
  - orphan-claims          Swarm claims held by an agent with no live registration
  - stale-locks            Abandoned swarm/plan lock files
  - auto-register-paths    Configured autoRegisterPaths with no matching directory

All checks are read-only; none of them fix anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := mesh.ResolveBaseDir()
		d := doctor.NewDoctor()
		d.RegisterAll(doctor.DefaultChecks()...)
		results := d.RunAll(&doctor.Context{BaseDir: baseDir, Cwd: cwd()})

		printResult(results, func() {
			for _, r := range results {
				st := style.StatusStyle(string(r.Status))
				fmt.Printf("[%s] %-24s %s\n", st.Render(string(r.Status)), r.Name, r.Message)
				for _, detail := range r.Details {
					fmt.Println("    " + detail)
				}
			}
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
