package registry

import (
	"time"

	"github.com/pi-messenger/messenger/internal/pathspec"
)

// Counters tracks per-session usage, bounded so a registration file never
// grows unbounded over a long-lived process.
type Counters struct {
	ToolCallCount  int      `json:"toolCallCount"`
	TokenCount     int      `json:"tokenCount"`
	ModifiedFiles  []string `json:"modifiedFiles,omitempty"` // bounded to 20, most recent last
}

const maxModifiedFiles = 20

// RecordModifiedFile appends path, trimming the oldest entries so the
// list never exceeds maxModifiedFiles.
func (c *Counters) RecordModifiedFile(path string) {
	c.ModifiedFiles = append(c.ModifiedFiles, path)
	if len(c.ModifiedFiles) > maxModifiedFiles {
		c.ModifiedFiles = c.ModifiedFiles[len(c.ModifiedFiles)-maxModifiedFiles:]
	}
}

// Activity is the most recent local-activity record for a registration.
type Activity struct {
	LastActivityAt  time.Time `json:"lastActivityAt"`
	CurrentActivity string    `json:"currentActivity,omitempty"`
	LastToolCall    string    `json:"lastToolCall,omitempty"`
}

// Registration is the on-disk record for one live agent process.
type Registration struct {
	Name        string                  `json:"name"`
	PID         int                     `json:"pid"`
	SessionID   string                  `json:"sessionId"`
	Cwd         string                  `json:"cwd"`
	Model       string                  `json:"model,omitempty"`
	StartedAt   time.Time               `json:"startedAt"`
	GitBranch   string                  `json:"gitBranch,omitempty"` // branch name, or "@<short-sha>", or absent
	SpecPath    string                  `json:"specPath,omitempty"`
	HumanDriven bool                    `json:"humanDriven,omitempty"`
	Counters    Counters                `json:"counters"`
	Activity    Activity                `json:"activity"`
	StatusMessage string                `json:"statusMessage,omitempty"`
	Reservations []pathspec.Reservation `json:"reservations,omitempty"`
}
