package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/crew/spawner"
	"github.com/pi-messenger/messenger/internal/crew/store"
	"github.com/pi-messenger/messenger/internal/meshapi"
)

var prdCandidates = []string{"PRD.md", "SPEC.md", "REQUIREMENTS.md", "DESIGN.md", "PLAN.md"}

// PlanResult is what Plan returns on success.
type PlanResult struct {
	Plan      store.Plan
	Tasks     []store.Task
	Passes    int
	FinalVerdict string
}

// Plan discovers a PRD, creates the project's plan, and runs up to
// Cfg.Planning.MaxPasses planner/reviewer passes before extracting and
// persisting the task list. prdPath overrides discovery when non-empty.
func (o *Orchestrator) Plan(prdPath string) (PlanResult, error) {
	if err := checkNotChild(); err != nil {
		return PlanResult{}, err
	}
	if o.Roster.Planner == "" {
		return PlanResult{}, meshapi.New(meshapi.KindNoPlanner, "no planner agent configured")
	}

	var result PlanResult
	err := o.Store.WithPlanLock(func() error {
		resolved, err := o.resolvePRD(prdPath)
		if err != nil {
			return err
		}
		prdText := truncateMarked(resolved.text, constants.PRDMaxBytes)

		plan, err := o.Store.CreatePlan(resolved.path)
		if err != nil {
			return err
		}

		finalOutput, passes, verdict, err := o.runPlanningPasses(prdText)
		if err != nil {
			_ = o.Store.DeletePlan()
			return err
		}

		tasks, err := o.extractTasks(finalOutput)
		if err != nil {
			_ = o.Store.DeletePlan()
			return meshapi.New(meshapi.KindAnalystFailed, "could not parse tasks from planner output: %v", err)
		}

		if err := o.Store.WritePlanSpec(finalOutput); err != nil {
			return err
		}

		result = PlanResult{Plan: plan, Tasks: tasks, Passes: passes, FinalVerdict: verdict}
		return nil
	})
	return result, err
}

type resolvedPRD struct {
	path string
	text string
}

// resolvePRD returns explicitPath if given, else the first candidate
// found at root or under docs/, deduplicated by lowercased canonical
// path to tolerate case-insensitive filesystems.
func (o *Orchestrator) resolvePRD(explicitPath string) (resolvedPRD, error) {
	if explicitPath != "" {
		data, err := os.ReadFile(filepath.Join(o.ProjectDir, explicitPath))
		if err != nil {
			return resolvedPRD{}, meshapi.New(meshapi.KindNoPRD, "cannot read PRD at %q: %v", explicitPath, err)
		}
		return resolvedPRD{path: explicitPath, text: string(data)}, nil
	}

	seen := map[string]bool{}
	var candidates []string
	for _, name := range prdCandidates {
		candidates = append(candidates, name, filepath.Join("docs", name))
	}
	for _, rel := range candidates {
		abs := filepath.Join(o.ProjectDir, rel)
		key := strings.ToLower(filepath.Clean(abs))
		if seen[key] {
			continue
		}
		seen[key] = true
		data, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		return resolvedPRD{path: rel, text: string(data)}, nil
	}
	return resolvedPRD{}, meshapi.New(meshapi.KindNoPRD, "no PRD found at root or docs/ (tried %s)", strings.Join(prdCandidates, ", "))
}

// runPlanningPasses runs the planner (and, if configured and passes
// remain, the reviewer) up to MaxPasses times, returning the last
// planner output and the final reviewer verdict seen (if any).
func (o *Orchestrator) runPlanningPasses(prdText string) (string, int, string, error) {
	maxPasses := o.Cfg.Planning.MaxPasses
	if maxPasses < 1 {
		maxPasses = 1
	}

	var lastOutput, lastReview, verdict string
	for pass := 1; pass <= maxPasses; pass++ {
		progress := o.Store.PlanningProgressPath()
		progressLog := readFileOrEmpty(progress)
		prompt := buildPlannerPrompt(prdText, truncatePrefixAndLatest(progressLog, constants.PlanningProgressMaxBytes), lastReview)

		res := o.Spawner.Run(context.Background(), spawner.Request{
			Role: spawner.RolePlanner, Name: o.Roster.Planner, Prompt: prompt,
			Cwd: o.ProjectDir, RunID: "plan", Index: pass, EnvExtra: childEnv(),
		}, nil)
		if res.Err != nil {
			return "", pass, verdict, meshapi.New(meshapi.KindPlannerFailed, "planner run failed: %v", res.Err)
		}
		lastOutput = res.Output

		header := appendPassHeader(pass, time.Now())
		appendFile(progress, header+res.Output)

		if o.Roster.Reviewer == "" || pass == maxPasses {
			break
		}

		reviewPrompt := buildPlanReviewPrompt(res.Output, lastReview)
		reviewRes := o.Spawner.Run(context.Background(), spawner.Request{
			Role: spawner.RoleReviewer, Name: o.Roster.Reviewer, Prompt: reviewPrompt,
			Cwd: o.ProjectDir, RunID: "plan", Index: pass, EnvExtra: childEnv(),
		}, nil)
		if reviewRes.Err != nil {
			break // treat a failed review pass as "no more feedback", not fatal
		}
		verdict = parseVerdict(reviewRes.Output)
		lastReview = reviewRes.Output
		if verdict == string(store.VerdictShip) {
			break
		}
	}
	return lastOutput, maxPasses, verdict, nil
}

func buildPlannerPrompt(prd, progress, lastReview string) string {
	var b strings.Builder
	b.WriteString("# PRD\n\n")
	b.WriteString(prd)
	if progress != "" {
		b.WriteString("\n\n# Planning progress so far\n\n")
		b.WriteString(progress)
	}
	if lastReview != "" {
		b.WriteString("\n\n# Reviewer feedback on the previous pass\n\n")
		b.WriteString(lastReview)
	}
	return b.String()
}

func buildPlanReviewPrompt(planOutput, prevReview string) string {
	var b strings.Builder
	b.WriteString("# Plan draft to review\n\n")
	b.WriteString(planOutput)
	if prevReview != "" {
		b.WriteString("\n\n# Previous review\n\n")
		b.WriteString(prevReview)
	}
	return b.String()
}

var verdictPattern = regexp.MustCompile(`(?i)Verdict:\s*(SHIP|NEEDS_WORK|MAJOR_RETHINK)`)

func parseVerdict(text string) string {
	m := verdictPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

var (
	tasksJSONBlock = regexp.MustCompile("(?s)```tasks-json\\s*\\n(.*?)```")
	taskHeading    = regexp.MustCompile(`(?m)^### Task (\d+):\s*(.+)$`)
	depsLine       = regexp.MustCompile(`(?i)^Dependencies:\s*(.*)$`)
)

type parsedTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DependsOn   []string `json:"dependsOn"`
}

// extractTasks parses the planner's final output, preferring a fenced
// tasks-json block, falling back to "### Task N: Title" / "Dependencies:"
// markdown headings.
func (o *Orchestrator) extractTasks(output string) ([]store.Task, error) {
	parsed, err := parseTasksJSON(output)
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		parsed = parseTaskHeadings(output)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("no tasks found in planner output")
	}

	titleToID := map[string]string{}
	var created []store.Task
	for _, pt := range parsed {
		t, err := o.Store.CreateTask(pt.Title, nil, pt.Description)
		if err != nil {
			return nil, err
		}
		titleToID[strings.ToLower(pt.Title)] = t.ID
		created = append(created, t)
	}

	// Second pass: resolve dependency strings (lowercased title, "task N",
	// or "task-N") to the ids just allocated, then persist.
	for i, pt := range parsed {
		var deps []string
		for _, ref := range pt.DependsOn {
			if id, ok := resolveDependencyRef(ref, titleToID); ok {
				deps = append(deps, id)
			}
		}
		if len(deps) == 0 {
			continue
		}
		t, err := o.Store.SetDependsOn(created[i].ID, deps)
		if err != nil {
			return nil, err
		}
		created[i] = t
	}
	return created, nil
}

func resolveDependencyRef(ref string, titleToID map[string]string) (string, bool) {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	if id, ok := titleToID[lower]; ok {
		return id, true
	}
	if m := regexp.MustCompile(`(?i)^task[\s-]*(\d+)$`).FindStringSubmatch(ref); m != nil {
		return "task-" + m[1], true
	}
	if _, err := strconv.Atoi(ref); err == nil {
		return "task-" + ref, true
	}
	return "", false
}

func parseTasksJSON(output string) ([]parsedTask, error) {
	m := tasksJSONBlock.FindStringSubmatch(output)
	if m == nil {
		return nil, nil
	}
	var tasks []parsedTask
	if err := json.Unmarshal([]byte(m[1]), &tasks); err != nil {
		return nil, fmt.Errorf("invalid tasks-json block: %w", err)
	}
	return tasks, nil
}

func parseTaskHeadings(output string) []parsedTask {
	matches := taskHeading.FindAllStringSubmatchIndex(output, -1)
	var tasks []parsedTask
	for i, m := range matches {
		title := output[m[4]:m[5]]
		bodyStart := m[1]
		bodyEnd := len(output)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		body := output[bodyStart:bodyEnd]

		var deps []string
		for _, line := range strings.Split(body, "\n") {
			if dm := depsLine.FindStringSubmatch(strings.TrimSpace(line)); dm != nil {
				for _, ref := range strings.Split(dm[1], ",") {
					if ref = strings.TrimSpace(ref); ref != "" && !strings.EqualFold(ref, "none") {
						deps = append(deps, ref)
					}
				}
			}
		}
		tasks = append(tasks, parsedTask{Title: strings.TrimSpace(title), Description: strings.TrimSpace(body), DependsOn: deps})
	}
	return tasks
}

func readFileOrEmpty(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func appendFile(path, content string) {
	existing := readFileOrEmpty(path)
	_ = atomicio.WriteFileAtomic(path, []byte(existing+content), 0o644)
}
