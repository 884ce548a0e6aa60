package doctor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/procutil"
	"github.com/pi-messenger/messenger/internal/registry"
	"github.com/pi-messenger/messenger/internal/swarm"
)

// claimsFile mirrors swarm's on-disk claims.json shape: absolute spec
// path -> task id -> claim. Duplicated here rather than exported from
// swarm because claims.json is swarm's private storage format, not a
// public API doctor should depend on.
type claimsFile map[string]map[string]swarm.Claim

// OrphanClaimCheck flags claims held by an agent with no live
// registration: the claimant process died (or was renamed) without
// releasing its claim, so the task looks permanently stuck to anyone
// scanning the swarm.
type OrphanClaimCheck struct {
	BaseCheck
}

func NewOrphanClaimCheck() *OrphanClaimCheck {
	return &OrphanClaimCheck{
		BaseCheck: BaseCheck{
			CheckName:        "orphan-claims",
			CheckDescription: "Detect swarm claims held by agents with no live registration",
			CheckCategory:    CategorySwarm,
		},
	}
}

func (c *OrphanClaimCheck) Run(ctx *Context) *Result {
	path := filepath.Join(ctx.BaseDir, constants.ClaimsFileName)
	var claims claimsFile
	if err := atomicio.ReadJSON(path, &claims); err != nil {
		if os.IsNotExist(err) {
			return okResult(c.Name(), "no claims recorded yet")
		}
		return &Result{Name: c.Name(), Status: StatusError, Message: err.Error()}
	}

	reg := registry.NewStore(ctx.BaseDir)
	var orphans []string
	for spec, byTask := range claims {
		for taskID, claim := range byTask {
			entry, ok := reg.Get(claim.Agent)
			if !ok || !procutil.IsAlive(entry.PID) {
				orphans = append(orphans, fmt.Sprintf("%s: %s claimed by %s (no live process)", spec, taskID, claim.Agent))
			}
		}
	}

	if len(orphans) == 0 {
		return okResult(c.Name(), "every claim is held by a live agent")
	}
	return warnResult(c.Name(), orphans, "%d orphaned claim(s) found", len(orphans))
}
