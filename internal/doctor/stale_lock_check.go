package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/procutil"
)

// StaleLockCheck reports lock files past their stale window whose
// recorded holder PID is no longer alive — the same condition
// atomicio.Acquire would evict on its own next contended call, surfaced
// here before any contender happens to hit it.
type StaleLockCheck struct {
	BaseCheck
}

func NewStaleLockCheck() *StaleLockCheck {
	return &StaleLockCheck{
		BaseCheck: BaseCheck{
			CheckName:        "stale-locks",
			CheckDescription: "Detect abandoned swarm/plan lock files",
			CheckCategory:    CategoryLocks,
		},
	}
}

type lockToCheck struct {
	path       string
	staleAfter time.Duration
}

func (c *StaleLockCheck) Run(ctx *Context) *Result {
	candidates := []lockToCheck{
		{filepath.Join(ctx.BaseDir, constants.SwarmLockName), constants.SwarmLockStale},
		{filepath.Join(ctx.Cwd, constants.ProjectDirName, constants.CrewDirName, constants.PlanLockName), constants.PlanLockStale},
	}

	var stale []string
	for _, lock := range candidates {
		info, err := os.Stat(lock.path)
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) < lock.staleAfter {
			continue
		}
		data, err := os.ReadFile(lock.path)
		if err != nil {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err == nil && procutil.IsAlive(pid) {
			continue
		}
		stale = append(stale, fmt.Sprintf("%s (held since %s)", lock.path, info.ModTime().Format(time.RFC3339)))
	}

	if len(stale) == 0 {
		return okResult(c.Name(), "no abandoned locks found")
	}
	return warnResult(c.Name(), stale, "%d abandoned lock file(s) found", len(stale))
}
