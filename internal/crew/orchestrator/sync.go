package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pi-messenger/messenger/internal/crew/spawner"
	"github.com/pi-messenger/messenger/internal/crew/store"
	"github.com/pi-messenger/messenger/internal/meshapi"
)

// SyncResult lists which dependent tasks had their spec amended.
type SyncResult struct {
	UpdatedTaskIDs []string
	Output         string
}

var updatedHeading = regexp.MustCompile(`(?m)^###\s*Updated:\s*(task-\d+)\s*$`)

// Sync proposes spec amendments to every todo task that lists a
// just-completed task directly in its DependsOn (tasks that depend on it
// only transitively are not included), so downstream workers pick
// up anything the completed task's implementation changed about the
// assumptions their own spec was written against.
func (o *Orchestrator) Sync(completedTaskID string) (SyncResult, error) {
	if o.Roster.Sync == "" {
		return SyncResult{}, meshapi.New(meshapi.KindNoSyncAgent, "no sync agent configured")
	}
	completed, ok := o.Store.GetTask(completedTaskID)
	if !ok {
		return SyncResult{}, meshapi.New(meshapi.KindNotFound, "no task %q", completedTaskID)
	}

	all, err := o.Store.ListTasks()
	if err != nil {
		return SyncResult{}, err
	}
	var dependents []store.Task
	for _, t := range all {
		if t.Status != store.StatusTodo {
			continue
		}
		for _, dep := range t.DependsOn {
			if dep == completedTaskID {
				dependents = append(dependents, t)
				break
			}
		}
	}
	if len(dependents) == 0 {
		return SyncResult{}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Completed task %s: %s\n\n%s\n\n", completed.ID, completed.Title, completed.Summary)
	b.WriteString("## Dependent tasks\n\n")
	for _, t := range dependents {
		fmt.Fprintf(&b, "### %s: %s\n\n%s\n\n", t.ID, t.Title, o.Store.TaskSpec(t.ID))
	}

	res := o.Spawner.Run(context.Background(), spawner.Request{
		Role: spawner.RoleSync, Name: o.Roster.Sync, Prompt: b.String(),
		Cwd: o.ProjectDir, RunID: "sync", EnvExtra: childEnv(),
	}, nil)
	if res.Err != nil {
		return SyncResult{}, fmt.Errorf("sync run failed: %w", res.Err)
	}

	updates := parseSyncUpdates(res.Output)
	var updatedIDs []string
	for id, content := range updates {
		if err := o.Store.AppendTaskSpec(id, "New content", content); err != nil {
			return SyncResult{}, err
		}
		updatedIDs = append(updatedIDs, id)
	}
	return SyncResult{UpdatedTaskIDs: updatedIDs, Output: res.Output}, nil
}

func parseSyncUpdates(output string) map[string]string {
	matches := updatedHeading.FindAllStringSubmatchIndex(output, -1)
	updates := make(map[string]string, len(matches))
	for i, m := range matches {
		id := output[m[2]:m[3]]
		bodyStart := m[1]
		bodyEnd := len(output)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		updates[id] = strings.TrimSpace(output[bodyStart:bodyEnd])
	}
	return updates
}
