package mesh

import (
	"path/filepath"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/crew/orchestrator"
)

func rosterPath(cwd string) string {
	return filepath.Join(cwd, constants.ProjectDirName, constants.CrewDirName, constants.CrewConfigName)
}

// LoadRoster reads the project's configured crew agent names, or a zero
// Roster (every role unavailable) if none has been set yet.
func LoadRoster(cwd string) orchestrator.Roster {
	var r orchestrator.Roster
	_ = atomicio.ReadJSON(rosterPath(cwd), &r)
	return r
}

// SaveRoster persists the project's crew agent names.
func SaveRoster(cwd string, r orchestrator.Roster) error {
	return atomicio.WriteJSONAtomic(rosterPath(cwd), r)
}
