package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/crew/spawner"
	"github.com/pi-messenger/messenger/internal/crew/store"
	"github.com/pi-messenger/messenger/internal/gitutil"
	"github.com/pi-messenger/messenger/internal/meshapi"
)

// ReviewResult is what Review returns.
type ReviewResult struct {
	Review store.Review
	Output string
}

// Review infers the review type from target: a "task-"-prefixed target
// is an implementation review (diff baseCommit..HEAD plus task spec);
// anything else is a plan review (plan spec plus per-task previews).
func (o *Orchestrator) Review(target string) (ReviewResult, error) {
	if o.Roster.Reviewer == "" {
		return ReviewResult{}, meshapi.New(meshapi.KindNoReviewer, "no reviewer agent configured")
	}

	if strings.HasPrefix(target, "task-") {
		return o.reviewImplementation(target)
	}
	return o.reviewPlan()
}

func (o *Orchestrator) reviewImplementation(taskID string) (ReviewResult, error) {
	t, ok := o.Store.GetTask(taskID)
	if !ok {
		return ReviewResult{}, meshapi.New(meshapi.KindNotFound, "no task %q", taskID)
	}

	diff, _ := gitutil.Diff(o.ProjectDir, t.BaseCommit, "")
	diff = truncateMarked(diff, constants.DiffMaxBytes)
	log, _ := gitutil.Log(o.ProjectDir, t.BaseCommit, "")

	var b strings.Builder
	fmt.Fprintf(&b, "# Implementation review for %s: %s\n\n", t.ID, t.Title)
	b.WriteString("## Task spec\n\n")
	b.WriteString(o.Store.TaskSpec(t.ID))
	b.WriteString("\n\n## Commit log\n\n")
	b.WriteString(log)
	b.WriteString("\n\n## Diff\n\n")
	b.WriteString(diff)
	if prd := o.Store.PlanSpec(); prd != "" {
		b.WriteString("\n\n## Plan reference\n\n")
		b.WriteString(truncateMarked(prd, 20*1024))
	}

	res := o.Spawner.Run(context.Background(), spawner.Request{
		Role: spawner.RoleReviewer, Name: o.Roster.Reviewer, Prompt: b.String(),
		Cwd: o.ProjectDir, RunID: "review", EnvExtra: childEnv(),
	}, nil)
	if res.Err != nil {
		return ReviewResult{}, meshapi.New(meshapi.KindPlannerFailed, "reviewer run failed: %v", res.Err)
	}

	review := parseReviewSections(res.Output)
	updated, err := o.Store.SetReview(t.ID, review)
	if err != nil {
		return ReviewResult{}, err
	}
	return ReviewResult{Review: *updated.LastReview, Output: res.Output}, nil
}

func (o *Orchestrator) reviewPlan() (ReviewResult, error) {
	plan, ok := o.Store.GetPlan()
	if !ok {
		return ReviewResult{}, meshapi.New(meshapi.KindNoPlan, "no plan for this project")
	}
	tasks, err := o.Store.ListTasks()
	if err != nil {
		return ReviewResult{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Plan review (PRD: %s)\n\n", plan.PRDPath)
	b.WriteString(o.Store.PlanSpec())
	b.WriteString("\n\n## Tasks\n\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "### %s: %s\n\n%s\n\n", t.ID, t.Title, truncateMarked(o.Store.TaskSpec(t.ID), 2*1024))
	}

	res := o.Spawner.Run(context.Background(), spawner.Request{
		Role: spawner.RoleReviewer, Name: o.Roster.Reviewer, Prompt: b.String(),
		Cwd: o.ProjectDir, RunID: "review", EnvExtra: childEnv(),
	}, nil)
	if res.Err != nil {
		return ReviewResult{}, meshapi.New(meshapi.KindPlannerFailed, "reviewer run failed: %v", res.Err)
	}

	review := parseReviewSections(res.Output)
	return ReviewResult{Review: review, Output: res.Output}, nil
}

var (
	sectionVerdict     = regexp.MustCompile(`(?i)Verdict:\s*(SHIP|NEEDS_WORK|MAJOR_RETHINK)`)
	sectionIssues      = regexp.MustCompile(`(?is)##\s*Issues\s*\n(.*?)(\n##|\z)`)
	sectionSuggestions = regexp.MustCompile(`(?is)##\s*Suggestions\s*\n(.*?)(\n##|\z)`)
)

// parseReviewSections reads the reviewer's structured Verdict/Issues/
// Suggestions sections out of its free-text output.
func parseReviewSections(output string) store.Review {
	r := store.Review{Summary: output}
	if m := sectionVerdict.FindStringSubmatch(output); m != nil {
		r.Verdict = store.Verdict(strings.ToUpper(m[1]))
	}
	if m := sectionIssues.FindStringSubmatch(output); m != nil {
		r.Issues = splitBullets(m[1])
	}
	if m := sectionSuggestions.FindStringSubmatch(output); m != nil {
		r.Suggestions = splitBullets(m[1])
	}
	return r
}

func splitBullets(block string) []string {
	var items []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "-")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}
