package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pi-messenger/messenger/internal/crew/autonomy"
	"github.com/pi-messenger/messenger/internal/crew/spawner"
	"github.com/pi-messenger/messenger/internal/crew/store"
	"github.com/pi-messenger/messenger/internal/meshapi"
)

// TaskOutcome classifies one task's fate after a work wave.
type TaskOutcome string

const (
	OutcomeSucceeded TaskOutcome = "succeeded"
	OutcomeBlocked   TaskOutcome = "blocked"
	OutcomeFailed    TaskOutcome = "failed"
)

// WorkResult is what Work returns after running one wave.
type WorkResult struct {
	Wave         int
	Outcomes     map[string]TaskOutcome
	Stopped      bool
	StopReason   autonomy.StopReason
	// Continuation, if non-empty, is a steer message body the caller
	// should deliver to the session's own inbox so the host turn loop
	// re-invokes `work` on the next step. Only set for autonomous runs
	// that aren't stopping.
	Continuation string
}

// Work runs one wave: up to Cfg.Concurrency.Workers ready tasks are
// started and spawned in parallel. When autonomous is true, wave
// progress is tracked via Autonomy and the result says whether to stop
// or continue.
func (o *Orchestrator) Work(autonomous bool, agentName string) (WorkResult, error) {
	if err := checkNotChild(); err != nil {
		return WorkResult{}, err
	}
	if o.Roster.Worker == "" {
		return WorkResult{}, meshapi.New(meshapi.KindNoWorker, "no worker agent configured")
	}
	if _, ok := o.Store.GetPlan(); !ok {
		return WorkResult{}, meshapi.New(meshapi.KindNoPlan, "no plan for this project")
	}

	var state autonomy.State
	wave := 1
	if autonomous {
		var err error
		state, err = o.Autonomy.Start(o.ProjectDir)
		if err != nil {
			return WorkResult{}, err
		}
		wave = state.NextWave
	}

	ready, err := o.Store.ReadyTasks()
	if err != nil {
		return WorkResult{}, err
	}
	batch := ready
	workerCap := o.Cfg.Concurrency.Workers
	if workerCap > 0 && len(batch) > workerCap {
		batch = batch[:workerCap]
	}

	started := make([]store.Task, 0, len(batch))
	for _, t := range batch {
		baseCommit := currentBaseCommit(o.ProjectDir)
		startedTask, err := o.Store.Start(t.ID, agentName, baseCommit)
		if err != nil {
			continue // raced with another starter; skip
		}
		started = append(started, startedTask)
	}

	outcomes := o.runWorkers(started)

	result := WorkResult{Wave: wave, Outcomes: outcomes}
	if !autonomous {
		return result, nil
	}

	succeeded, blocked, failed := 0, 0, 0
	touched := make([]string, 0, len(started))
	for id, outcome := range outcomes {
		touched = append(touched, id)
		switch outcome {
		case OutcomeSucceeded:
			succeeded++
		case OutcomeBlocked:
			blocked++
		default:
			failed++
		}
	}
	newState, err := o.Autonomy.RecordWave(autonomy.WaveRecord{
		Wave: wave, Succeeded: succeeded, Blocked: blocked, Failed: failed,
	}, touched)
	if err != nil {
		return result, err
	}

	remainingReady, err := o.Store.ReadyTasks()
	if err != nil {
		return result, err
	}
	allTasks, err := o.Store.ListTasks()
	if err != nil {
		return result, err
	}
	allDone := true
	anyInProgress := false
	for _, t := range allTasks {
		if t.Status != store.StatusDone {
			allDone = false
		}
		if t.Status == store.StatusInProgress {
			anyInProgress = true
		}
	}

	switch {
	case allDone:
		_, _ = o.Autonomy.Stop(autonomy.StopCompleted)
		result.Stopped = true
		result.StopReason = autonomy.StopCompleted
	case len(remainingReady) == 0 && !anyInProgress:
		_, _ = o.Autonomy.Stop(autonomy.StopBlocked)
		result.Stopped = true
		result.StopReason = autonomy.StopBlocked
	case newState.NextWave > o.Cfg.Work.MaxWaves && o.Cfg.Work.MaxWaves > 0:
		_, _ = o.Autonomy.Stop(autonomy.StopManual)
		result.Stopped = true
		result.StopReason = autonomy.StopManual
	default:
		result.Continuation = fmt.Sprintf("Wave %d complete (%d succeeded, %d blocked, %d failed). Continuing autonomous work.",
			wave, succeeded, blocked, failed)
	}
	return result, nil
}

// runWorkers spawns one worker child per started task, waits for all of
// them, and classifies the resulting task state.
func (o *Orchestrator) runWorkers(tasks []store.Task) map[string]TaskOutcome {
	outcomes := make(map[string]TaskOutcome, len(tasks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	sem := make(chan struct{}, maxInt(len(tasks), 1))
	for i, t := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, t store.Task) {
			defer wg.Done()
			defer func() { <-sem }()
			o.runOneWorker(t, i, &mu, outcomes)
		}(i, t)
	}
	wg.Wait()
	return outcomes
}

func (o *Orchestrator) runOneWorker(t store.Task, idx int, mu *sync.Mutex, outcomes map[string]TaskOutcome) {
	prompt := o.buildWorkerPrompt(t)
	res := o.Spawner.Run(context.Background(), spawner.Request{
		Role: spawner.RoleWorker, Name: o.Roster.Worker, Prompt: prompt,
		Cwd: o.ProjectDir, RunID: "work", Index: idx, EnvExtra: childEnv(),
	}, nil)

	mu.Lock()
	defer mu.Unlock()

	fresh, ok := o.Store.GetTask(t.ID)
	if !ok {
		outcomes[t.ID] = OutcomeFailed
		return
	}
	switch fresh.Status {
	case store.StatusDone:
		outcomes[t.ID] = OutcomeSucceeded
	case store.StatusBlocked:
		outcomes[t.ID] = OutcomeBlocked
	default:
		reason := "worker exited without marking the task done or blocked"
		if res.Err != nil {
			reason = res.Err.Error()
		}
		if _, err := o.Store.Block(t.ID, reason); err == nil {
			outcomes[t.ID] = OutcomeBlocked
		} else {
			outcomes[t.ID] = OutcomeFailed
		}
	}
}

func (o *Orchestrator) buildWorkerPrompt(t store.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Task %s: %s\n\n", t.ID, t.Title)
	b.WriteString(o.Store.TaskSpec(t.ID))
	if len(t.DependsOn) > 0 {
		fmt.Fprintf(&b, "\n\n# Dependencies\n\n%s\n", strings.Join(t.DependsOn, ", "))
	}
	if t.Attempt > 1 && t.LastReview != nil {
		fmt.Fprintf(&b, "\n\n# Previous review (attempt %d)\n\nVerdict: %s\n%s\n",
			t.Attempt-1, t.LastReview.Verdict, t.LastReview.Summary)
	}
	if spec := o.Store.PlanSpec(); spec != "" {
		fmt.Fprintf(&b, "\n\n# Plan context\n\n%s\n", truncateMarked(spec, 20*1024))
	}
	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
