// Package store persists a project's PRD-to-tasks plan: the plan record
// itself, the task list, dependency readiness, and lifecycle
// transitions. At most one plan exists per project directory.
package store

import "time"

// Status is a task's lifecycle state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// Verdict is a reviewer's categorical judgment on a task attempt or a
// plan draft.
type Verdict string

const (
	VerdictShip         Verdict = "SHIP"
	VerdictNeedsWork    Verdict = "NEEDS_WORK"
	VerdictMajorRethink Verdict = "MAJOR_RETHINK"
)

// Review is the last reviewer verdict recorded against a task, surfaced
// to the next worker attempt's prompt.
type Review struct {
	Verdict     Verdict  `json:"verdict"`
	Summary     string   `json:"summary,omitempty"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	ReviewedAt  time.Time `json:"reviewedAt"`
}

// Evidence is what a worker reports backing a completion claim.
type Evidence struct {
	Commits []string `json:"commits,omitempty"`
	Tests   []string `json:"tests,omitempty"`
	PRs     []string `json:"prs,omitempty"`
}

// Task is one unit of work under a plan.
type Task struct {
	ID          string   `json:"id"` // "task-1", "task-2", ...
	Title       string   `json:"title"`
	Status      Status   `json:"status"`
	DependsOn   []string `json:"dependsOn,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	BaseCommit     string   `json:"baseCommit,omitempty"`
	AssignedAgent  string   `json:"assignedAgent,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	Evidence       Evidence `json:"evidence,omitempty"`
	BlockedReason  string   `json:"blockedReason,omitempty"`
	Attempt        int      `json:"attempt"`
	LastReview     *Review  `json:"lastReview,omitempty"`
}

// Plan anchors one PRD to its generated tasks for a project.
type Plan struct {
	PRDPath        string    `json:"prdPath"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	TaskCount      int       `json:"taskCount"`
	CompletedCount int       `json:"completedCount"`
}
