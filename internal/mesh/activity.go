package mesh

import (
	"regexp"
	"time"

	"github.com/pi-messenger/messenger/internal/feed"
	"github.com/pi-messenger/messenger/internal/presence"
)

// RecordToolCall notes a local tool call on the caller's registration:
// bumps the tool-call counter, adds tokens to the session total, stamps
// last activity, and remembers the label so peers see what this agent
// last did.
func (c *Coordinator) RecordToolCall(label string, tokens int) error {
	reg, err := c.self()
	if err != nil {
		return err
	}
	reg.Counters.ToolCallCount++
	reg.Counters.TokenCount += tokens
	reg.Activity.LastActivityAt = time.Now()
	reg.Activity.LastToolCall = label
	return c.Registry.Register(reg)
}

// RecordFileEdit notes a write-class tool call on path: the path joins
// the registration's bounded modified-file list and a debounced edit
// event lands in the activity feed.
func (c *Coordinator) RecordFileEdit(path string) error {
	reg, err := c.self()
	if err != nil {
		return err
	}
	reg.Counters.RecordModifiedFile(path)
	reg.Activity.LastActivityAt = time.Now()
	if err := c.Registry.Register(reg); err != nil {
		return err
	}
	return c.Feed.AppendEdit(reg.Name, path)
}

var (
	commitPattern = regexp.MustCompile(`(?:^|[;&|]\s*)git\s+commit\b`)
	testPattern   = regexp.MustCompile(`(?:^|[;&|]\s*)(go\s+test|npm\s+(?:run\s+)?test|pytest|cargo\s+test|make\s+test)\b`)
)

// ObserveBash inspects a bash tool call for feed-worthy activity: a git
// commit or a test-runner invocation, with pass/fail inferred from the
// exit code. Commands matching neither pattern are ignored.
func (c *Coordinator) ObserveBash(command string, exitCode int) error {
	self, err := c.self()
	if err != nil {
		return err
	}

	if commitPattern.MatchString(command) {
		branch := self.GitBranch
		return c.Feed.Append(feed.New(feed.KindCommit, self.Name, branch))
	}
	if testPattern.MatchString(command) {
		passed := exitCode == 0
		ev := feed.New(feed.KindTest, self.Name, "")
		ev.Passed = &passed
		return c.Feed.Append(ev)
	}
	return nil
}

// StuckNotifications scans every active peer's presence and returns the
// names that have just transitioned into stuck — each name appears at
// most once per continuous stuck episode, debounced by the coordinator's
// tracker. A stuck event is appended to the feed for each notification.
func (c *Coordinator) StuckNotifications() ([]string, error) {
	self, _ := LoadSelf(c.Cwd)
	peers, err := c.Registry.GetActiveAgents(self.Name, "")
	if err != nil {
		return nil, err
	}

	stuckAfter := stuckThreshold(c.Cfg.StuckThresholdSec)
	now := time.Now()
	var notify []string
	for _, peer := range peers {
		status := presence.Derive(peer, now, stuckAfter,
			presence.HasClaimOrReservation(peer, c.peerHasClaim(peer.Name)))
		if c.Stuck.Observe(peer.Name, status) {
			notify = append(notify, peer.Name)
			_ = c.Feed.Append(feed.New(feed.KindStuck, peer.Name, ""))
		}
	}
	return notify, nil
}
