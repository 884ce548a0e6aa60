package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pi-messenger/messenger/internal/config"
	"github.com/pi-messenger/messenger/internal/util"
)

// AutoRegisterPathCheck flags configured autoRegisterPaths entries that
// no longer resolve to a directory on disk — a rename or a removed
// clone silently turns off auto-join for that path.
type AutoRegisterPathCheck struct {
	BaseCheck
}

func NewAutoRegisterPathCheck() *AutoRegisterPathCheck {
	return &AutoRegisterPathCheck{
		BaseCheck: BaseCheck{
			CheckName:        "auto-register-paths",
			CheckDescription: "Detect configured autoRegisterPaths with no matching directory",
			CheckCategory:    CategoryConfig,
		},
	}
}

func (c *AutoRegisterPathCheck) Run(ctx *Context) *Result {
	cfg, err := config.Load()
	if err != nil {
		return &Result{Name: c.Name(), Status: StatusError, Message: err.Error()}
	}
	if len(cfg.AutoRegisterPaths) == 0 {
		return okResult(c.Name(), "no autoRegisterPaths configured")
	}

	var missing []string
	for _, p := range cfg.AutoRegisterPaths {
		expanded := util.ExpandHome(p)
		if strings.ContainsAny(expanded, "*?[") {
			matches, err := filepath.Glob(expanded)
			if err != nil || len(matches) == 0 {
				missing = append(missing, fmt.Sprintf("%s (expands to %s, matches nothing)", p, expanded))
			}
			continue
		}
		info, err := os.Stat(expanded)
		if err != nil || !info.IsDir() {
			missing = append(missing, fmt.Sprintf("%s (expands to %s)", p, expanded))
		}
	}

	if len(missing) == 0 {
		return okResult(c.Name(), "every autoRegisterPaths entry resolves to a directory")
	}
	return warnResult(c.Name(), missing, "%d autoRegisterPaths entr(ies) with no matching directory", len(missing))
}
