package inbox

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/meshapi"
	"github.com/pi-messenger/messenger/internal/naming"
	"github.com/pi-messenger/messenger/internal/procutil"
	"github.com/pi-messenger/messenger/internal/registry"
)

// Dir returns the inbox directory for a session id, rooted at baseDir.
// Inboxes are keyed by session id, never by name, so a rename never
// orphans in-flight messages.
func Dir(baseDir, sessionID string) string {
	return filepath.Join(baseDir, constants.InboxDirName, sessionID)
}

// SendToAgent validates the named recipient (valid name, live
// registration) and, if alive, atomically writes msg into its inbox.
// The send is fire-and-forget: the caller never waits for delivery.
func SendToAgent(reg *registry.Store, baseDir, recipientName string, msg Message) error {
	if !naming.Valid(recipientName) {
		return meshapi.New(meshapi.KindInvalidName, "invalid recipient name %q", recipientName)
	}
	target, ok := reg.Get(recipientName)
	if !ok {
		return meshapi.New(meshapi.KindNotFound, "no registration for %q", recipientName)
	}
	if !procutil.IsAlive(target.PID) {
		return meshapi.New(meshapi.KindNotActive, "%q is not active", recipientName)
	}

	dir := Dir(baseDir, target.SessionID)
	path := filepath.Join(dir, atomicio.TimestampedName(".json"))

	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}
	return atomicio.WriteFileAtomic(path, data, 0o644)
}
