package mesh

import (
	"sort"
	"time"

	"github.com/pi-messenger/messenger/internal/feed"
	"github.com/pi-messenger/messenger/internal/inbox"
	"github.com/pi-messenger/messenger/internal/meshapi"
	"github.com/pi-messenger/messenger/internal/naming"
	"github.com/pi-messenger/messenger/internal/presence"
	"github.com/pi-messenger/messenger/internal/procutil"
)

// Whois returns the named peer's registration with its derived presence.
// Unlike List it does not exclude the caller, so an agent can whois
// itself by name.
func (c *Coordinator) Whois(name string) (AgentView, error) {
	if !naming.Valid(name) {
		return AgentView{}, meshapi.New(meshapi.KindInvalidName, "invalid name %q", name)
	}
	reg, ok := c.Registry.Get(name)
	if !ok {
		return AgentView{}, meshapi.New(meshapi.KindNotFound, "no registration for %q", name)
	}
	if !procutil.IsAlive(reg.PID) {
		return AgentView{}, meshapi.New(meshapi.KindNotActive, "%q is not active", name)
	}
	status := presence.Derive(reg, time.Now(), stuckThreshold(c.Cfg.StuckThresholdSec),
		presence.HasClaimOrReservation(reg, c.peerHasClaim(name)))
	return AgentView{Registration: reg, Status: status}, nil
}

// SetStatus updates the caller's free-form status message and marks the
// moment as activity, so a peer reading the roster sees both the text
// and a fresh presence.
func (c *Coordinator) SetStatus(message string) error {
	reg, err := c.self()
	if err != nil {
		return err
	}
	reg.StatusMessage = message
	reg.Activity.LastActivityAt = time.Now()
	return c.Registry.Register(reg)
}

// SetSpec points the caller's registration at a spec path, the grouping
// key its swarm claims will be listed under.
func (c *Coordinator) SetSpec(path string) error {
	reg, err := c.self()
	if err != nil {
		return err
	}
	reg.SpecPath = path
	reg.Activity.LastActivityAt = time.Now()
	return c.Registry.Register(reg)
}

// Rename moves the caller's registration to newName. The inbox directory
// is keyed by session id, never by name, so pending and in-flight
// messages survive the rename untouched. An explicit new name never
// retries on collision.
func (c *Coordinator) Rename(newName string) error {
	self, err := c.self()
	if err != nil {
		return err
	}
	if newName == self.Name {
		return nil
	}
	if err := c.Registry.RenameAgent(self.Name, newName); err != nil {
		return err
	}
	return SaveSelf(c.Cwd, Self{Name: newName, SessionID: self.SessionID})
}

// BroadcastResult reports per-recipient outcomes of a broadcast: one
// failed recipient never prevents delivery to the rest.
type BroadcastResult struct {
	Sent   []string          `json:"sent"`
	Failed map[string]string `json:"failed,omitempty"` // name -> error kind
}

// Broadcast sends text to every other active agent (scoped to this
// project directory when Cfg.ScopeToFolder is set).
func (c *Coordinator) Broadcast(text string) (BroadcastResult, error) {
	self, err := c.self()
	if err != nil {
		return BroadcastResult{}, err
	}
	scopeCwd := ""
	if c.Cfg.ScopeToFolder {
		scopeCwd = c.Cwd
	}
	peers, err := c.Registry.GetActiveAgents(self.Name, scopeCwd)
	if err != nil {
		return BroadcastResult{}, err
	}

	result := BroadcastResult{Failed: map[string]string{}}
	for _, peer := range peers {
		msg := inbox.New(self.Name, peer.Name, text, "")
		if err := inbox.SendToAgent(c.Registry, c.BaseDir, peer.Name, msg); err != nil {
			if r, ok := err.(*meshapi.Result); ok {
				result.Failed[peer.Name] = string(r.Kind)
			} else {
				result.Failed[peer.Name] = err.Error()
			}
			continue
		}
		result.Sent = append(result.Sent, peer.Name)
	}
	sort.Strings(result.Sent)
	if len(result.Failed) == 0 {
		result.Failed = nil
	}
	if len(result.Sent) > 0 {
		_ = c.Feed.Append(feed.New(feed.KindMessage, self.Name, "*"))
	}
	return result, nil
}

// RecentFeed returns up to limit recent activity events, oldest first.
func (c *Coordinator) RecentFeed(limit int) ([]feed.Event, error) {
	return c.Feed.Recent(limit)
}
