package inbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/constants"
)

// staleClaimThreshold is how long a claimed-but-unprocessed file is left
// before a crashed drainer's claim is assumed abandoned and requeued.
const staleClaimThreshold = 5 * time.Minute

// Drain reads every pending message for sessionID in FIFO (timestamp)
// order, delivering each via deliver and removing it. A message that
// fails to parse is quarantined to .deadletter instead of being retried.
// Each file is atomically claimed (renamed) before being read, so two
// concurrent Drain calls on the same inbox never deliver the same
// message twice.
func Drain(baseDir, sessionID string, deliver func(Message)) error {
	dir := Dir(baseDir, sessionID)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading inbox %s: %w", dir, err)
	}

	requeueStaleClaims(dir, entries)

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		claimPath := path + ".claimed." + atomicio.RandomSuffix()
		if err := os.Rename(path, claimPath); err != nil {
			// Another drainer claimed it first.
			continue
		}

		data, err := os.ReadFile(claimPath)
		if err != nil {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			quarantine(dir, entry.Name(), claimPath)
			continue
		}

		deliver(msg)
		_ = os.Remove(claimPath)
	}

	return nil
}

// requeueStaleClaims renames back any .claimed file whose mtime is older
// than staleClaimThreshold — evidence its drainer crashed mid-delivery.
func requeueStaleClaims(dir string, entries []os.DirEntry) {
	now := time.Now()
	for _, entry := range entries {
		if !strings.Contains(entry.Name(), ".claimed") {
			continue
		}
		info, err := entry.Info()
		if err != nil || now.Sub(info.ModTime()) <= staleClaimThreshold {
			continue
		}
		claimed := filepath.Join(dir, entry.Name())
		idx := strings.Index(entry.Name(), ".claimed")
		restored := filepath.Join(dir, entry.Name()[:idx])
		if err := os.Rename(claimed, restored); err != nil {
			_ = os.Remove(claimed)
		}
	}
}

// quarantine moves a message that failed to parse into the inbox's
// .deadletter directory, named after the original file plus a
// bad-<timestamp> suffix, and continues — a malformed message never
// blocks delivery of the rest of the inbox.
func quarantine(dir, originalName, claimPath string) {
	deadDir := filepath.Join(dir, constants.DeadLetterDirName)
	if err := os.MkdirAll(deadDir, 0o755); err != nil {
		_ = os.Remove(claimPath)
		return
	}
	dest := filepath.Join(deadDir, fmt.Sprintf("%s.bad-%d", originalName, time.Now().UnixNano()))
	if err := os.Rename(claimPath, dest); err != nil {
		_ = os.Remove(claimPath)
	}
}
