package store

import (
	"os"
	"time"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/meshapi"
)

// Start transitions a ready task todo -> in_progress, capturing baseCommit
// (the project's current HEAD, resolved by the caller via gitutil — the
// store itself never shells out) and the assigned agent. The attempt
// counter increments on every start, including retries after a block or
// reset, so callers can cap retries.
func (s *Store) Start(id, agent, baseCommit string) (Task, error) {
	t, ok := s.GetTask(id)
	if !ok {
		return Task{}, meshapi.New(meshapi.KindNotFound, "no task %q", id)
	}
	if t.Status != StatusTodo {
		return Task{}, meshapi.New(meshapi.KindInvalidStatus, "task %q is %s, not todo", id, t.Status)
	}
	if !s.depsSatisfied(t) {
		return Task{}, meshapi.New(meshapi.KindUnmetDependencies, "task %q has unmet dependencies", id).
			WithDetails(map[string]any{"dependsOn": t.DependsOn})
	}

	now := time.Now()
	t.Status = StatusInProgress
	t.StartedAt = &now
	t.BaseCommit = baseCommit
	t.AssignedAgent = agent
	t.Attempt++
	if err := s.saveTask(t); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Done transitions in_progress -> done, records the completion summary
// and evidence, and increments the plan's completed counter.
func (s *Store) Done(id, summary string, evidence Evidence) (Task, error) {
	t, ok := s.GetTask(id)
	if !ok {
		return Task{}, meshapi.New(meshapi.KindNotFound, "no task %q", id)
	}
	if t.Status != StatusInProgress {
		return Task{}, meshapi.New(meshapi.KindInvalidStatus, "task %q is %s, not in_progress", id, t.Status)
	}

	now := time.Now()
	t.Status = StatusDone
	t.CompletedAt = &now
	t.Summary = summary
	t.Evidence = evidence
	if err := s.saveTask(t); err != nil {
		return Task{}, err
	}

	if p, ok := s.GetPlan(); ok {
		p.CompletedCount++
		_ = s.savePlan(p)
	}
	return t, nil
}

// Block transitions in_progress -> blocked, writing reason to
// crew/blocks/<id>.md.
func (s *Store) Block(id, reason string) (Task, error) {
	t, ok := s.GetTask(id)
	if !ok {
		return Task{}, meshapi.New(meshapi.KindNotFound, "no task %q", id)
	}
	if t.Status != StatusInProgress {
		return Task{}, meshapi.New(meshapi.KindInvalidStatus, "task %q is %s, not in_progress", id, t.Status)
	}

	t.Status = StatusBlocked
	t.BlockedReason = reason
	if err := s.saveTask(t); err != nil {
		return Task{}, err
	}
	if err := atomicio.WriteFileAtomic(s.blockPath(id), []byte(reason), 0o644); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Unblock transitions blocked -> todo, clearing the block reason so the
// task can be picked up again.
func (s *Store) Unblock(id string) (Task, error) {
	t, ok := s.GetTask(id)
	if !ok {
		return Task{}, meshapi.New(meshapi.KindNotFound, "no task %q", id)
	}
	if t.Status != StatusBlocked {
		return Task{}, meshapi.New(meshapi.KindInvalidStatus, "task %q is %s, not blocked", id, t.Status)
	}

	t.Status = StatusTodo
	t.BlockedReason = ""
	if err := s.saveTask(t); err != nil {
		return Task{}, err
	}
	_ = os.Remove(s.blockPath(id))
	return t, nil
}

// Reset forces any status back to todo, clearing in-flight fields.
// Cascade also resets every task (transitively) depending on id, so a
// reverted upstream task doesn't leave stale downstream work in done.
func (s *Store) Reset(id string, cascade bool) ([]Task, error) {
	t, ok := s.GetTask(id)
	if !ok {
		return nil, meshapi.New(meshapi.KindNotFound, "no task %q", id)
	}

	reset, err := s.resetOne(t)
	if err != nil {
		return nil, err
	}
	results := []Task{reset}

	if cascade {
		all, err := s.ListTasks()
		if err != nil {
			return nil, err
		}
		dependents := transitiveDependents(all, id)
		for _, dep := range dependents {
			r, err := s.resetOne(dep)
			if err != nil {
				return nil, err
			}
			results = append(results, r)
		}
	}
	return results, nil
}

func (s *Store) resetOne(t Task) (Task, error) {
	wasDone := t.Status == StatusDone
	t.Status = StatusTodo
	t.StartedAt = nil
	t.CompletedAt = nil
	t.BlockedReason = ""
	t.BaseCommit = ""
	t.AssignedAgent = ""
	if err := s.saveTask(t); err != nil {
		return Task{}, err
	}
	_ = os.Remove(s.blockPath(t.ID))

	if wasDone {
		if p, ok := s.GetPlan(); ok && p.CompletedCount > 0 {
			p.CompletedCount--
			_ = s.savePlan(p)
		}
	}
	return t, nil
}

// SetDependsOn overwrites a task's dependency list, used by the planner's
// second pass once dependency references have been resolved to task ids.
func (s *Store) SetDependsOn(id string, deps []string) (Task, error) {
	t, ok := s.GetTask(id)
	if !ok {
		return Task{}, meshapi.New(meshapi.KindNotFound, "no task %q", id)
	}
	t.DependsOn = deps
	if err := s.saveTask(t); err != nil {
		return Task{}, err
	}
	return t, nil
}

// SetReview records the reviewer's verdict on a task's latest attempt,
// read by the next worker prompt if the verdict was not SHIP.
func (s *Store) SetReview(id string, review Review) (Task, error) {
	t, ok := s.GetTask(id)
	if !ok {
		return Task{}, meshapi.New(meshapi.KindNotFound, "no task %q", id)
	}
	review.ReviewedAt = time.Now()
	t.LastReview = &review
	if err := s.saveTask(t); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (s *Store) depsSatisfied(t Task) bool {
	for _, dep := range t.DependsOn {
		d, ok := s.GetTask(dep)
		if !ok || d.Status != StatusDone {
			return false
		}
	}
	return true
}

// transitiveDependents returns every task that depends, directly or
// transitively, on id.
func transitiveDependents(all []Task, id string) []Task {
	byID := make(map[string]Task, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}

	dependents := make(map[string]bool)
	var visit func(string)
	visit = func(target string) {
		for _, t := range all {
			for _, dep := range t.DependsOn {
				if dep == target && !dependents[t.ID] {
					dependents[t.ID] = true
					visit(t.ID)
				}
			}
		}
	}
	visit(id)

	var result []Task
	for taskID := range dependents {
		result = append(result, byID[taskID])
	}
	return result
}
