package mesh

import (
	"os"
	"path/filepath"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/constants"
)

// Self is the local process's own identity, persisted per project
// directory so a one-shot CLI invocation (join, then later send, status,
// ...) can find out who it already registered as without holding any
// in-memory state across processes.
type Self struct {
	Name      string `json:"name"`
	SessionID string `json:"sessionId"`
}

func selfPath(cwd string) string {
	return filepath.Join(cwd, constants.ProjectDirName, "self.json")
}

// LoadSelf reads the local identity marker, if any.
func LoadSelf(cwd string) (Self, bool) {
	var s Self
	if err := atomicio.ReadJSON(selfPath(cwd), &s); err != nil || s.Name == "" {
		return Self{}, false
	}
	return s, true
}

// SaveSelf persists the local identity marker.
func SaveSelf(cwd string, s Self) error {
	return atomicio.WriteJSONAtomic(selfPath(cwd), s)
}

// ClearSelf removes the marker, used on leave.
func ClearSelf(cwd string) error {
	err := os.Remove(selfPath(cwd))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
