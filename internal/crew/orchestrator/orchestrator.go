// Package orchestrator implements the five action families that turn a
// PRD into tasks and drive them to completion: plan, work, review,
// interview, sync. Each handler reads plan/task state from
// internal/crew/store, fans child agents out through
// internal/crew/spawner under a concurrency cap, parses their output,
// and writes the result back to the store.
package orchestrator

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pi-messenger/messenger/internal/config"
	"github.com/pi-messenger/messenger/internal/crew/autonomy"
	"github.com/pi-messenger/messenger/internal/crew/spawner"
	"github.com/pi-messenger/messenger/internal/crew/store"
	"github.com/pi-messenger/messenger/internal/gitutil"
)

// Roster names the child agent to invoke for each role. An empty field
// means that role is unavailable; handlers that need it fail with the
// matching meshapi.Kind (no_planner, no_worker, no_reviewer, no_analyst).
type Roster struct {
	Analyst     string
	Planner     string
	Worker      string
	Reviewer    string
	Interviewer string
	Sync        string
}

// Orchestrator composes the crew store, spawner, autonomy tracker, and
// tunables for one project.
type Orchestrator struct {
	Store      *store.Store
	Autonomy   *autonomy.Store
	Spawner    *spawner.Spawner
	Cfg        config.Crew
	ProjectDir string
	Roster     Roster
}

// New builds an Orchestrator for projectDir using cfg's tunables.
func New(projectDir string, cfg config.Crew, roster Roster) *Orchestrator {
	s := store.New(projectDir)
	artifactsDir := ""
	if cfg.Artifacts.Enabled {
		artifactsDir = s.ArtifactsDir()
	}
	return &Orchestrator{
		Store:      s,
		Autonomy:   autonomy.New(projectDir),
		Spawner:    spawner.New(artifactsDir),
		Cfg:        cfg,
		ProjectDir: projectDir,
		Roster:     roster,
	}
}

// truncateMarked bounds s to maxBytes, appending a marker if it had to
// cut. Used for every byte-bounded prompt assembly point (PRD,
// planning-progress log, diffs).
func truncateMarked(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	return s[:maxBytes] + "\n\n[...truncated...]"
}

// truncatePrefixAndLatest keeps the notes prefix (everything before the
// first "## Pass" header) plus the most recent run, eliding
// runs in between once the combined log exceeds maxBytes — the planner
// always sees its own notes and the latest pass, never a log cut
// mid-run by the flat byte-cap used elsewhere.
func truncatePrefixAndLatest(log string, maxBytes int) string {
	if len(log) <= maxBytes {
		return log
	}
	runs := strings.Split(log, "\n## Pass ")
	if len(runs) < 2 {
		return truncateMarked(log, maxBytes)
	}
	prefix := runs[0]
	latest := "## Pass " + runs[len(runs)-1]
	combined := prefix + "\n[...earlier passes elided...]\n\n" + latest
	if len(combined) > maxBytes {
		return truncateMarked(combined, maxBytes)
	}
	return combined
}

// appendPassHeader renders the timestamped header written before each
// pass's planner output in planning-progress.md.
func appendPassHeader(pass int, now time.Time) string {
	return fmt.Sprintf("\n## Pass %d (%s)\n\n", pass, now.UTC().Format(time.RFC3339))
}

// childEnv marks a spawned agent as a crew child so it refuses to
// recurse into another `work`/`plan` invocation.
func childEnv() []string {
	return []string{crewChildEnvVar + "=1"}
}

const crewChildEnvVar = "PI_MESSENGER_CREW_CHILD"

// checkNotChild rejects crew actions invoked from a process that was
// itself spawned as a crew child, so a worker can't fan out workers of
// its own.
func checkNotChild() error {
	if os.Getenv(crewChildEnvVar) != "" {
		return fmt.Errorf("crew actions are disabled inside a crew child process")
	}
	return nil
}

// currentBaseCommit resolves the project's HEAD for a task's baseCommit
// field, tolerating a non-git project directory.
func currentBaseCommit(dir string) string {
	sha, err := gitutil.HeadCommit(dir)
	if err != nil {
		return ""
	}
	return sha
}
