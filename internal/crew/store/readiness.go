package store

import "github.com/pi-messenger/messenger/internal/meshapi"

// Ready reports whether t is eligible to be started: status todo and
// every dependency done.
func Ready(t Task, byID map[string]Task) bool {
	if t.Status != StatusTodo {
		return false
	}
	for _, dep := range t.DependsOn {
		d, ok := byID[dep]
		if !ok || d.Status != StatusDone {
			return false
		}
	}
	return true
}

// ReadyTasks returns every ready task from the store, in id order.
func (s *Store) ReadyTasks() ([]Task, error) {
	all, err := s.ListTasks()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Task, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	var ready []Task
	for _, t := range all {
		if Ready(t, byID) {
			ready = append(ready, t)
		}
	}
	return ready, nil
}

// ValidateAcyclic checks the full dependency graph for cycles via DFS
// with an explicit recursion stack, and that every referenced dependency
// exists.
func (s *Store) ValidateAcyclic() error {
	all, err := s.ListTasks()
	if err != nil {
		return err
	}
	byID := make(map[string]Task, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(all))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return meshapi.New(meshapi.KindInvalidStatus, "dependency cycle detected at %q", id)
		case done:
			return nil
		}
		state[id] = visiting
		t, ok := byID[id]
		if !ok {
			return meshapi.New(meshapi.KindDependencyNotFound, "task %q does not exist", id)
		}
		for _, dep := range t.DependsOn {
			if _, ok := byID[dep]; !ok {
				return meshapi.New(meshapi.KindDependencyNotFound, "dependency %q does not exist", dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, t := range all {
		if err := visit(t.ID); err != nil {
			return err
		}
	}
	return nil
}

// ResyncCounters recomputes plan.taskCount/completedCount from the task
// list and persists the correction — the counters are eventually
// consistent maintenance fields, not a source of truth.
func (s *Store) ResyncCounters() (Plan, error) {
	p, ok := s.GetPlan()
	if !ok {
		return Plan{}, meshapi.New(meshapi.KindNoPlan, "no plan for this project")
	}
	all, err := s.ListTasks()
	if err != nil {
		return Plan{}, err
	}
	completed := 0
	for _, t := range all {
		if t.Status == StatusDone {
			completed++
		}
	}
	p.TaskCount = len(all)
	p.CompletedCount = completed
	if err := s.savePlan(p); err != nil {
		return Plan{}, err
	}
	return p, nil
}
