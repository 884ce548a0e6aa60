// Package reservation enforces path reservations declared on agent
// registrations against a local process's own write-class tool calls.
// Reservations are advisory: nothing stops another process from writing
// to a reserved path directly, they only block this process's own
// write/edit calls when a peer's reservation matches.
package reservation

import (
	"fmt"

	"github.com/pi-messenger/messenger/internal/pathspec"
	"github.com/pi-messenger/messenger/internal/registry"
)

// Conflict describes the peer whose reservation blocked a write.
type Conflict struct {
	PeerName     string
	PeerCwd      string
	PeerBranch   string
	Reservation  pathspec.Reservation
}

func (c Conflict) Error() string {
	loc := c.PeerCwd
	if c.PeerBranch != "" {
		loc = fmt.Sprintf("%s@%s", loc, c.PeerBranch)
	}
	reason := c.Reservation.Reason
	if reason == "" {
		reason = "no reason given"
	}
	return fmt.Sprintf("%s reserved %s (%s): %s", c.PeerName, c.Reservation.Path, loc, reason)
}

// Check scans every active peer (as returned by GetActiveAgents,
// excluding the caller) for a reservation matching target, and returns
// the first match as a Conflict. Read operations never call this — only
// write-class tool calls (write, edit) are checked.
func Check(peers []registry.Registration, anchor, target string) (*Conflict, error) {
	normalized, _ := pathspec.Normalize(anchor, target)

	for _, peer := range peers {
		if r, ok := pathspec.FirstMatch(peer.Reservations, normalized); ok {
			return &Conflict{
				PeerName:    peer.Name,
				PeerCwd:     peer.Cwd,
				PeerBranch:  peer.GitBranch,
				Reservation: r,
			}, nil
		}
	}
	return nil, nil
}

// Declare normalizes and appends a reservation to reg's reservation
// list, ready to be persisted by the caller via registry.Store.Register.
func Declare(reg *registry.Registration, anchor, path, reason string) {
	normalized, isDir := pathspec.Normalize(anchor, path)
	reg.Reservations = append(reg.Reservations, pathspec.Reservation{
		Path:   normalized,
		IsDir:  isDir,
		Reason: reason,
		Since:  nowRFC3339(),
	})
}

// Release removes every reservation on reg matching path exactly
// (normalized the same way Declare stored it).
func Release(reg *registry.Registration, anchor, path string) {
	normalized, _ := pathspec.Normalize(anchor, path)
	kept := reg.Reservations[:0]
	for _, r := range reg.Reservations {
		if r.Path != normalized {
			kept = append(kept, r)
		}
	}
	reg.Reservations = kept
}
