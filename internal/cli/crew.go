package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/crew/orchestrator"
	"github.com/pi-messenger/messenger/internal/mesh"
)

var crewCmd = &cobra.Command{
	Use:     "crew",
	GroupID: GroupCrew,
	Short:   "Run the PRD-to-tasks crew orchestrator",
	RunE:    requireSubcommand,
}

func dispatchCrew(op string, params map[string]any) (any, error) {
	c, err := mesh.New("", cwd())
	if err != nil {
		return nil, err
	}
	return c.Router.Dispatch("crew."+op, params)
}

var crewPRDPath string

var crewPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Turn a PRD into a task graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchCrew("plan", map[string]any{"prdPath": crewPRDPath})
		if err != nil {
			return err
		}
		printResult(result, func() { fmt.Printf("%+v\n", result) })
		return nil
	},
}

var crewAutonomous bool

var crewWorkCmd = &cobra.Command{
	Use:   "work",
	Short: "Spawn worker agents across ready tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchCrew("work", map[string]any{"autonomous": crewAutonomous})
		if err != nil {
			return err
		}
		printResult(result, func() { fmt.Printf("%+v\n", result) })
		return nil
	},
}

var crewReviewTarget string

var crewReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a completed task or the current plan draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchCrew("review", map[string]any{"target": crewReviewTarget})
		if err != nil {
			return err
		}
		printResult(result, func() { fmt.Printf("%+v\n", result) })
		return nil
	},
}

var crewInterviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Generate clarifying questions for an ambiguous PRD",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchCrew("interview", nil)
		if err != nil {
			return err
		}
		questions, _ := result.([]orchestrator.Question)
		printResult(questions, func() {
			for _, q := range questions {
				fmt.Println(q.Prompt)
			}
		})
		return nil
	},
}

var crewSyncTaskID string

var crewSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Propagate a completed task's outcome into dependent task specs",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchCrew("sync", map[string]any{"taskId": crewSyncTaskID})
		if err != nil {
			return err
		}
		printResult(result, func() { fmt.Printf("%+v\n", result) })
		return nil
	},
}

var crewStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the plan, task counts, and autonomous-run state",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchCrew("status", nil)
		if err != nil {
			return err
		}
		status, _ := result.(mesh.CrewStatus)
		printResult(status, func() {
			fmt.Printf("plan: %s (%d/%d done)\n", status.Plan.PRDPath, status.Done, status.Plan.TaskCount)
			fmt.Printf("todo %d  in_progress %d  done %d  blocked %d\n",
				status.Todo, status.InProgress, status.Done, status.Blocked)
			if len(status.Ready) > 0 {
				fmt.Printf("ready: %v\n", status.Ready)
			}
			if status.Autonomy.Active {
				fmt.Printf("autonomous run active, next wave %d\n", status.Autonomy.NextWave)
			}
		})
		return nil
	},
}

var crewAgentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Show which child agent fills each crew role",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchCrew("agents", nil)
		if err != nil {
			return err
		}
		roster, _ := result.(orchestrator.Roster)
		printResult(roster, func() {
			fmt.Printf("analyst: %s\nplanner: %s\nworker: %s\nreviewer: %s\ninterviewer: %s\nsync: %s\n",
				roster.Analyst, roster.Planner, roster.Worker, roster.Reviewer, roster.Interviewer, roster.Sync)
		})
		return nil
	},
}

var crewValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the dependency graph and resync plan counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchCrew("validate", nil)
		if err != nil {
			return err
		}
		printResult(result, func() { fmt.Println("plan is consistent") })
		return nil
	},
}

var crewInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Seed this project with the default crew roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchCrew("install", nil)
		if err != nil {
			return err
		}
		printResult(result, func() { fmt.Println("crew installed") })
		return nil
	},
}

var crewUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove this project's crew roster (plan and tasks are kept)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := dispatchCrew("uninstall", nil); err != nil {
			return err
		}
		printResult(map[string]bool{"uninstalled": true}, func() { fmt.Println("crew uninstalled") })
		return nil
	},
}

var (
	rosterAnalyst     string
	rosterPlanner     string
	rosterWorker      string
	rosterReviewer    string
	rosterInterviewer string
	rosterSync        string
)

var crewSetRosterCmd = &cobra.Command{
	Use:   "set-roster",
	Short: "Configure which agent name fills each crew role",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := dispatchCrew("setRoster", map[string]any{
			"analyst":     rosterAnalyst,
			"planner":     rosterPlanner,
			"worker":      rosterWorker,
			"reviewer":    rosterReviewer,
			"interviewer": rosterInterviewer,
			"sync":        rosterSync,
		})
		if err != nil {
			return err
		}
		printResult(map[string]bool{"saved": true}, func() { fmt.Println("roster saved") })
		return nil
	},
}

func init() {
	crewPlanCmd.Flags().StringVar(&crewPRDPath, "prd", "", "path to the PRD to plan from")
	crewWorkCmd.Flags().BoolVar(&crewAutonomous, "autonomous", false, "keep spawning waves until nothing is ready")
	crewReviewCmd.Flags().StringVar(&crewReviewTarget, "target", "", "task id to review, or empty for the plan draft")
	crewSyncCmd.Flags().StringVar(&crewSyncTaskID, "task", "", "completed task id to sync")
	crewSetRosterCmd.Flags().StringVar(&rosterAnalyst, "analyst", "", "agent name for the analyst role")
	crewSetRosterCmd.Flags().StringVar(&rosterPlanner, "planner", "", "agent name for the planner role")
	crewSetRosterCmd.Flags().StringVar(&rosterWorker, "worker", "", "agent name for the worker role")
	crewSetRosterCmd.Flags().StringVar(&rosterReviewer, "reviewer", "", "agent name for the reviewer role")
	crewSetRosterCmd.Flags().StringVar(&rosterInterviewer, "interviewer", "", "agent name for the interviewer role")
	crewSetRosterCmd.Flags().StringVar(&rosterSync, "sync", "", "agent name for the sync role")
	crewCmd.AddCommand(crewPlanCmd, crewWorkCmd, crewReviewCmd, crewInterviewCmd, crewSyncCmd,
		crewStatusCmd, crewAgentsCmd, crewValidateCmd, crewInstallCmd, crewUninstallCmd, crewSetRosterCmd)
	rootCmd.AddCommand(crewCmd)
}
