package doctor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/procutil"
	"github.com/pi-messenger/messenger/internal/registry"
)

// DeadRegistrationCheck flags registry entries whose recorded PID is no
// longer alive. registry.Store.GetActiveAgents already garbage-collects
// these on the hot path; this check only reports them so an operator can
// see what a normal call would have quietly cleaned up.
type DeadRegistrationCheck struct {
	BaseCheck
}

func NewDeadRegistrationCheck() *DeadRegistrationCheck {
	return &DeadRegistrationCheck{
		BaseCheck: BaseCheck{
			CheckName:        "dead-registrations",
			CheckDescription: "Detect registry entries whose process is no longer running",
			CheckCategory:    CategoryRegistry,
		},
	}
}

func (c *DeadRegistrationCheck) Run(ctx *Context) *Result {
	dir := filepath.Join(ctx.BaseDir, constants.RegistryDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return okResult(c.Name(), "no registry directory yet")
		}
		return &Result{Name: c.Name(), Status: StatusError, Message: err.Error()}
	}

	var dead []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		var reg registry.Registration
		if err := atomicio.ReadJSON(filepath.Join(dir, entry.Name()), &reg); err != nil {
			continue
		}
		if !procutil.IsAlive(reg.PID) {
			dead = append(dead, fmt.Sprintf("%s (pid %d)", reg.Name, reg.PID))
		}
	}

	if len(dead) == 0 {
		return okResult(c.Name(), "every registered agent has a live process")
	}
	return warnResult(c.Name(), dead, "%d dead registration(s) found", len(dead))
}
