package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/meshapi"
)

// Store is the crew directory for one project: <projectDir>/.pi/messenger/crew.
type Store struct {
	root string // <projectDir>/.pi/messenger/crew
}

// New opens a crew store rooted at projectDir.
func New(projectDir string) *Store {
	return &Store{root: filepath.Join(projectDir, constants.ProjectDirName, constants.CrewDirName)}
}

func (s *Store) planPath() string     { return filepath.Join(s.root, constants.PlanFileName) }
func (s *Store) planSpecPath() string { return filepath.Join(s.root, constants.PlanSpecName) }
func (s *Store) lockPath() string     { return filepath.Join(s.root, constants.PlanLockName) }
func (s *Store) tasksDir() string     { return filepath.Join(s.root, constants.TasksDirName) }
func (s *Store) blocksDir() string    { return filepath.Join(s.root, constants.BlocksDirName) }

func (s *Store) taskPath(id string) string   { return filepath.Join(s.tasksDir(), id+".json") }
func (s *Store) taskSpecPath(id string) string { return filepath.Join(s.tasksDir(), id+".md") }
func (s *Store) blockPath(id string) string   { return filepath.Join(s.blocksDir(), id+".md") }

// PlanningProgressPath returns the append-only planning transcript path.
func (s *Store) PlanningProgressPath() string {
	return filepath.Join(s.root, constants.PlanningProgressName)
}

// InterviewQuestionsPath returns the interview-questions.json path.
func (s *Store) InterviewQuestionsPath() string {
	return filepath.Join(s.root, constants.InterviewQuestionsName)
}

// ArtifactsDir returns the per-runId artifact root.
func (s *Store) ArtifactsDir() string {
	return filepath.Join(s.root, constants.ArtifactsDir)
}

// WithPlanLock acquires the crew lock for the duration of fn. Long
// planning runs hold it for minutes, hence the longer stale window
// (constants.PlanLockStale) versus the swarm lock.
func (s *Store) WithPlanLock(fn func() error) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return err
	}
	lock, err := atomicio.AcquirePlanLock(s.lockPath())
	if err != nil {
		return meshapi.New(meshapi.KindLocked, "crew plan lock held: %v", err)
	}
	defer lock.Release()
	return fn()
}

// GetPlan returns the current plan, if one exists.
func (s *Store) GetPlan() (Plan, bool) {
	var p Plan
	if err := atomicio.ReadJSON(s.planPath(), &p); err != nil {
		return Plan{}, false
	}
	return p, true
}

// CreatePlan creates the project's single plan, failing with
// KindPlanExists if one is already on disk.
func (s *Store) CreatePlan(prdPath string) (Plan, error) {
	if existing, ok := s.GetPlan(); ok {
		return Plan{}, meshapi.New(meshapi.KindPlanExists, "plan already exists for %s", existing.PRDPath).
			WithDetails(map[string]any{"prdPath": existing.PRDPath})
	}
	now := time.Now()
	p := Plan{PRDPath: prdPath, CreatedAt: now, UpdatedAt: now}
	if err := atomicio.WriteJSONAtomic(s.planPath(), p); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// DeletePlan removes plan.json, used to roll back a plan created earlier
// in the same `plan` action call after a later stage fails (e.g.
// analyst_failed).
func (s *Store) DeletePlan() error {
	err := os.Remove(s.planPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// WritePlanSpec writes the analyst's full output to plan.md.
func (s *Store) WritePlanSpec(content string) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return err
	}
	return atomicio.WriteFileAtomic(s.planSpecPath(), []byte(content), 0o644)
}

// PlanSpec reads plan.md, or "" if absent.
func (s *Store) PlanSpec() string {
	data, err := os.ReadFile(s.planSpecPath())
	if err != nil {
		return ""
	}
	return string(data)
}

func (s *Store) savePlan(p Plan) error {
	p.UpdatedAt = time.Now()
	return atomicio.WriteJSONAtomic(s.planPath(), p)
}

// CreateTask allocates the next sequential task id and persists title,
// dependsOn, and a markdown spec body. Dependencies must name existing
// task ids.
func (s *Store) CreateTask(title string, dependsOn []string, specBody string) (Task, error) {
	for _, dep := range dependsOn {
		if _, ok := s.GetTask(dep); !ok {
			return Task{}, meshapi.New(meshapi.KindDependencyNotFound, "dependency %q does not exist", dep)
		}
	}

	id, err := s.nextTaskID()
	if err != nil {
		return Task{}, err
	}

	now := time.Now()
	t := Task{ID: id, Title: title, Status: StatusTodo, DependsOn: dependsOn, CreatedAt: now, UpdatedAt: now}
	if err := s.saveTask(t); err != nil {
		return Task{}, err
	}
	if specBody != "" {
		if err := atomicio.WriteFileAtomic(s.taskSpecPath(id), []byte(specBody), 0o644); err != nil {
			return Task{}, err
		}
	}

	if p, ok := s.GetPlan(); ok {
		p.TaskCount++
		_ = s.savePlan(p)
	}
	return t, nil
}

func (s *Store) nextTaskID() (string, error) {
	entries, err := os.ReadDir(s.tasksDir())
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("scanning tasks dir: %w", err)
	}
	max := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		n, ok := parseTaskNumber(name)
		if ok && n > max {
			max = n
		}
	}
	return fmt.Sprintf("task-%d", max+1), nil
}

func parseTaskNumber(id string) (int, bool) {
	if !strings.HasPrefix(id, "task-") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, "task-"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetTask returns a task by id.
func (s *Store) GetTask(id string) (Task, bool) {
	var t Task
	if err := atomicio.ReadJSON(s.taskPath(id), &t); err != nil {
		return Task{}, false
	}
	return t, true
}

// TaskSpec reads a task's markdown body, or "" if absent.
func (s *Store) TaskSpec(id string) string {
	data, err := os.ReadFile(s.taskSpecPath(id))
	if err != nil {
		return ""
	}
	return string(data)
}

// AppendTaskSpec appends amendment content under a "## <heading>"
// heading, never replacing the existing spec body (used by `sync`,
// which passes "New content").
func (s *Store) AppendTaskSpec(id, heading, content string) error {
	existing := s.TaskSpec(id)
	updated := existing
	if updated != "" && !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	updated += fmt.Sprintf("\n## %s\n\n%s\n", heading, content)
	return atomicio.WriteFileAtomic(s.taskSpecPath(id), []byte(updated), 0o644)
}

// ListTasks returns every task, sorted by numeric id.
func (s *Store) ListTasks() ([]Task, error) {
	entries, err := os.ReadDir(s.tasksDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning tasks dir: %w", err)
	}

	var tasks []Task
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		t, ok := s.GetTask(id)
		if !ok {
			continue
		}
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		ni, _ := parseTaskNumber(tasks[i].ID)
		nj, _ := parseTaskNumber(tasks[j].ID)
		return ni < nj
	})
	return tasks, nil
}

func (s *Store) saveTask(t Task) error {
	t.UpdatedAt = time.Now()
	return atomicio.WriteJSONAtomic(s.taskPath(t.ID), t)
}
