package mesh

import (
	"os"

	"github.com/pi-messenger/messenger/internal/crew/autonomy"
	"github.com/pi-messenger/messenger/internal/crew/orchestrator"
	"github.com/pi-messenger/messenger/internal/crew/store"
	"github.com/pi-messenger/messenger/internal/meshapi"
)

// CrewStatus summarizes where a project's crew run stands: the plan,
// task counts by status, what's ready to work, and the autonomous-run
// state if one is active or recently stopped.
type CrewStatus struct {
	Plan       store.Plan     `json:"plan"`
	Todo       int            `json:"todo"`
	InProgress int            `json:"inProgress"`
	Done       int            `json:"done"`
	Blocked    int            `json:"blocked"`
	Ready      []string       `json:"ready,omitempty"` // task ids startable right now
	Autonomy   autonomy.State `json:"autonomy"`
}

// CrewStatusReport assembles a CrewStatus for the coordinator's project.
func (c *Coordinator) CrewStatusReport() (CrewStatus, error) {
	s := c.crewStore()
	plan, ok := s.GetPlan()
	if !ok {
		return CrewStatus{}, meshapi.New(meshapi.KindNoPlan, "no plan for this project")
	}
	tasks, err := s.ListTasks()
	if err != nil {
		return CrewStatus{}, err
	}
	ready, err := s.ReadyTasks()
	if err != nil {
		return CrewStatus{}, err
	}

	status := CrewStatus{Plan: plan, Autonomy: autonomy.New(c.Cwd).Get()}
	for _, t := range tasks {
		switch t.Status {
		case store.StatusTodo:
			status.Todo++
		case store.StatusInProgress:
			status.InProgress++
		case store.StatusDone:
			status.Done++
		case store.StatusBlocked:
			status.Blocked++
		}
	}
	for _, t := range ready {
		status.Ready = append(status.Ready, t.ID)
	}
	return status, nil
}

// CrewValidate checks the dependency graph for cycles and resyncs the
// plan's eventually-consistent counters, returning the repaired plan.
func (c *Coordinator) CrewValidate() (store.Plan, error) {
	s := c.crewStore()
	if err := s.ValidateAcyclic(); err != nil {
		return store.Plan{}, err
	}
	return s.ResyncCounters()
}

// CrewInstall seeds the project's crew directory with a default roster
// so every role resolves to a child agent without per-project setup.
// An existing roster is left alone.
func (c *Coordinator) CrewInstall() (orchestrator.Roster, error) {
	existing := LoadRoster(c.Cwd)
	if existing != (orchestrator.Roster{}) {
		return existing, nil
	}
	roster := orchestrator.Roster{
		Analyst:     "analyst",
		Planner:     "planner",
		Worker:      "worker",
		Reviewer:    "reviewer",
		Interviewer: "interviewer",
		Sync:        "sync",
	}
	return roster, SaveRoster(c.Cwd, roster)
}

// CrewUninstall removes the project's crew roster config. Plan and task
// state is left on disk; uninstall only detaches the child-agent wiring.
func (c *Coordinator) CrewUninstall() error {
	err := os.Remove(rosterPath(c.Cwd))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
