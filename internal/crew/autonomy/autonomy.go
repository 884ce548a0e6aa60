// Package autonomy persists the per-project state of an autonomous crew
// work loop: whether it's active, which cwd it's bound to, the wave it's
// about to run, attempt counts per task, and why it last stopped.
package autonomy

import (
	"path/filepath"
	"time"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/constants"
)

// StopReason records why an autonomous run ended.
type StopReason string

const (
	StopNone      StopReason = ""
	StopCompleted StopReason = "completed"
	StopBlocked   StopReason = "blocked"
	StopManual    StopReason = "manual"
)

// WaveRecord summarizes one completed wave, retained for the run history.
type WaveRecord struct {
	Wave      int       `json:"wave"`
	Succeeded int       `json:"succeeded"`
	Blocked   int       `json:"blocked"`
	Failed    int       `json:"failed"`
	RanAt     time.Time `json:"ranAt"`
}

// State is the persisted autonomous-run record for one project. NextWave
// holds the wave number that will run next, not the last one that ran —
// named explicitly so a reader doesn't have to infer the off-by-one from
// context (see DESIGN.md's open-question note on this rename).
type State struct {
	Active    bool               `json:"active"`
	Cwd       string             `json:"cwd"`
	NextWave  int                `json:"nextWave"`
	Attempts  map[string]int     `json:"attempts,omitempty"` // taskID -> attempt count
	History   []WaveRecord       `json:"history,omitempty"`
	StartedAt *time.Time         `json:"startedAt,omitempty"`
	StoppedAt *time.Time         `json:"stoppedAt,omitempty"`
	StopReason StopReason        `json:"stopReason,omitempty"`
}

// Store persists autonomy state at <projectDir>/.pi/messenger/crew/autonomy.json.
type Store struct {
	path string
}

// New opens an autonomy store rooted at projectDir.
func New(projectDir string) *Store {
	return &Store{path: filepath.Join(projectDir, constants.ProjectDirName, constants.CrewDirName, "autonomy.json")}
}

// Get returns the current state, or a fresh zero-value state if none has
// been persisted yet.
func (s *Store) Get() State {
	var st State
	if err := atomicio.ReadJSON(s.path, &st); err != nil {
		return State{}
	}
	return st
}

// Start begins a fresh autonomous run bound to cwd. State already
// active for a different cwd is reset rather than resumed: a first wave
// or a cwd change both re-initialize.
func (s *Store) Start(cwd string) (State, error) {
	now := time.Now()
	st := s.Get()
	if st.Active && st.Cwd == cwd {
		return st, nil
	}
	st = State{
		Active:    true,
		Cwd:       cwd,
		NextWave:  1,
		Attempts:  map[string]int{},
		StartedAt: &now,
	}
	return st, s.save(st)
}

// RecordWave appends a wave's results to history, increments NextWave, and
// bumps the attempt counter for every task touched this wave.
func (s *Store) RecordWave(wave WaveRecord, touchedTaskIDs []string) (State, error) {
	st := s.Get()
	st.History = append(st.History, wave)
	if wave.Wave >= st.NextWave {
		st.NextWave = wave.Wave + 1
	}
	if st.Attempts == nil {
		st.Attempts = map[string]int{}
	}
	for _, id := range touchedTaskIDs {
		st.Attempts[id]++
	}
	return st, s.save(st)
}

// Stop ends the run, recording reason and stop time.
func (s *Store) Stop(reason StopReason) (State, error) {
	now := time.Now()
	st := s.Get()
	st.Active = false
	st.StopReason = reason
	st.StoppedAt = &now
	return st, s.save(st)
}

// AttemptCount returns how many times a task has been started so far this
// autonomous run.
func (s *Store) AttemptCount(taskID string) int {
	st := s.Get()
	return st.Attempts[taskID]
}

func (s *Store) save(st State) error {
	return atomicio.WriteJSONAtomic(s.path, st)
}
