package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pi-messenger/messenger/internal/crew/store"
	"github.com/pi-messenger/messenger/internal/mesh"
	"github.com/pi-messenger/messenger/internal/style"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	GroupID: GroupCrew,
	Short:   "Inspect and drive the task lifecycle for the current project",
	RunE:    requireSubcommand,
}

func dispatchTask(op string, params map[string]any) (any, error) {
	c, err := mesh.New("", cwd())
	if err != nil {
		return nil, err
	}
	return c.Router.Dispatch("task."+op, params)
}

func printTask(t store.Task) {
	fmt.Printf("%s  %s  %s\n", style.Bold.Render(t.ID), t.Title, style.Dim.Render(string(t.Status)))
	if len(t.DependsOn) > 0 {
		fmt.Println(style.Dim.Render("  depends on: " + strings.Join(t.DependsOn, ", ")))
	}
}

var (
	taskDependsOn []string
	taskSpecBody  string
	taskSummary   string
	taskReason    string
	taskCascade   bool
	taskCommits   []string
	taskTests     []string
	taskPRs       []string
)

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task under the current project's plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toAny := func(ss []string) []any {
			out := make([]any, len(ss))
			for i, s := range ss {
				out[i] = s
			}
			return out
		}
		result, err := dispatchTask("create", map[string]any{
			"title":     args[0],
			"dependsOn": toAny(taskDependsOn),
			"spec":      taskSpecBody,
		})
		if err != nil {
			return err
		}
		task := result.(store.Task)
		printResult(task, func() { printTask(task) })
		return nil
	},
}

var taskStartCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Mark a task in progress, assigned to this agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchTask("start", map[string]any{"id": args[0]})
		if err != nil {
			return err
		}
		task := result.(store.Task)
		printResult(task, func() { printTask(task) })
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task done with completion evidence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toAny := func(ss []string) []any {
			out := make([]any, len(ss))
			for i, s := range ss {
				out[i] = s
			}
			return out
		}
		result, err := dispatchTask("done", map[string]any{
			"id":      args[0],
			"summary": taskSummary,
			"commits": toAny(taskCommits),
			"tests":   toAny(taskTests),
			"prs":     toAny(taskPRs),
		})
		if err != nil {
			return err
		}
		task := result.(store.Task)
		printResult(task, func() { printTask(task) })
		return nil
	},
}

var taskBlockCmd = &cobra.Command{
	Use:   "block <id>",
	Short: "Mark a task blocked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchTask("block", map[string]any{"id": args[0], "reason": taskReason})
		if err != nil {
			return err
		}
		task := result.(store.Task)
		printResult(task, func() { printTask(task) })
		return nil
	},
}

var taskUnblockCmd = &cobra.Command{
	Use:   "unblock <id>",
	Short: "Clear a task's blocked state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchTask("unblock", map[string]any{"id": args[0]})
		if err != nil {
			return err
		}
		task := result.(store.Task)
		printResult(task, func() { printTask(task) })
		return nil
	},
}

var taskResetCmd = &cobra.Command{
	Use:   "reset <id>",
	Short: "Reset a task back to todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchTask("reset", map[string]any{"id": args[0], "cascade": taskCascade})
		if err != nil {
			return err
		}
		task := result.(store.Task)
		printResult(task, func() { printTask(task) })
		return nil
	},
}

var taskGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchTask("get", map[string]any{"id": args[0]})
		if err != nil {
			return err
		}
		task := result.(store.Task)
		printResult(task, func() { printTask(task) })
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every task in the current project's plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchTask("list", nil)
		if err != nil {
			return err
		}
		tasks := result.([]store.Task)
		printResult(tasks, func() {
			for _, t := range tasks {
				printTask(t)
			}
		})
		return nil
	},
}

var taskReadyCmd = &cobra.Command{
	Use:   "ready",
	Short: "List tasks whose dependencies are all done",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := dispatchTask("ready", nil)
		if err != nil {
			return err
		}
		tasks := result.([]store.Task)
		printResult(tasks, func() {
			for _, t := range tasks {
				printTask(t)
			}
		})
		return nil
	},
}

var taskSpecCmd = &cobra.Command{
	Use:   "spec <id>",
	Short: "Render a task's spec body as formatted markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := store.New(cwd()).TaskSpec(args[0])
		if jsonOutput {
			printResult(map[string]string{"spec": body}, func() {})
			return nil
		}
		rendered, err := glamour.Render(body, "dark")
		if err != nil {
			fmt.Println(body)
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

func init() {
	taskCmd.AddCommand(taskSpecCmd)
	taskCreateCmd.Flags().StringSliceVar(&taskDependsOn, "depends-on", nil, "task ids this task depends on")
	taskCreateCmd.Flags().StringVar(&taskSpecBody, "spec", "", "task spec body")
	taskDoneCmd.Flags().StringVar(&taskSummary, "summary", "", "completion summary")
	taskDoneCmd.Flags().StringSliceVar(&taskCommits, "commit", nil, "commit sha backing this completion")
	taskDoneCmd.Flags().StringSliceVar(&taskTests, "test", nil, "test evidence backing this completion")
	taskDoneCmd.Flags().StringSliceVar(&taskPRs, "pr", nil, "pull request backing this completion")
	taskBlockCmd.Flags().StringVar(&taskReason, "reason", "", "why the task is blocked")
	taskResetCmd.Flags().BoolVar(&taskCascade, "cascade", false, "also reset tasks that depend on this one")
	taskCmd.AddCommand(taskCreateCmd, taskStartCmd, taskDoneCmd, taskBlockCmd, taskUnblockCmd, taskResetCmd, taskGetCmd, taskListCmd, taskReadyCmd)
	rootCmd.AddCommand(taskCmd)
}
