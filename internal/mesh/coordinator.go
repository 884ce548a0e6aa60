// Package mesh is the composition root: it wires the registry, inbox,
// reservation, swarm, and crew packages into a single Coordinator that
// the CLI and the action router both call into. The router surface
// exists for agent callers that address the mesh by action string
// ("send", "swarm.claim", ...); the Coordinator's methods are the same
// operations exposed directly for Go callers (the CLI, tests).
package mesh

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pi-messenger/messenger/internal/config"
	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/crew/orchestrator"
	"github.com/pi-messenger/messenger/internal/crew/store"
	"github.com/pi-messenger/messenger/internal/feed"
	"github.com/pi-messenger/messenger/internal/gitutil"
	"github.com/pi-messenger/messenger/internal/inbox"
	"github.com/pi-messenger/messenger/internal/meshapi"
	"github.com/pi-messenger/messenger/internal/naming"
	"github.com/pi-messenger/messenger/internal/presence"
	"github.com/pi-messenger/messenger/internal/registry"
	"github.com/pi-messenger/messenger/internal/reservation"
	"github.com/pi-messenger/messenger/internal/router"
	"github.com/pi-messenger/messenger/internal/swarm"
)

// Coordinator holds every per-process singleton the mesh needs and
// dispatches actions to them through a router.Router.
type Coordinator struct {
	BaseDir string // ~/.pi/agent/messenger by default
	Cwd     string // the caller's project directory

	Registry *registry.Store
	Swarm    *swarm.Store
	Feed     *feed.Log
	Cfg      config.Config
	Stuck    *presence.StuckTracker

	Router *router.Router
}

// New builds a Coordinator rooted at baseDir for a caller working out of
// cwd. baseDir honors constants.BaseDirEnvVar when empty.
func New(baseDir, cwd string) (*Coordinator, error) {
	if baseDir == "" {
		baseDir = ResolveBaseDir()
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	reg := registry.NewStore(baseDir)
	c := &Coordinator{
		BaseDir:  baseDir,
		Cwd:      cwd,
		Registry: reg,
		Swarm:    swarm.NewStore(baseDir, reg),
		Feed:     feed.Open(baseDir),
		Cfg:      cfg,
		Stuck:    presence.NewStuckTracker(),
	}
	c.Router = router.New(c.isJoined)
	c.Router.Exempt("join")
	c.Router.Exempt("config.autoRegisterPath")
	c.wire()
	return c, nil
}

// ResolveBaseDir honors constants.BaseDirEnvVar, falling back to
// ~/.pi/agent/messenger.
func ResolveBaseDir() string {
	if p := os.Getenv(constants.BaseDirEnvVar); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, constants.DefaultBaseDirName)
}

func (c *Coordinator) isJoined() bool {
	self, ok := LoadSelf(c.Cwd)
	if !ok {
		return false
	}
	reg, ok := c.Registry.Get(self.Name)
	return ok && reg.SessionID == self.SessionID
}

// self returns the local identity's registration, failing with
// KindNotRegistered if join hasn't succeeded yet for this project dir.
func (c *Coordinator) self() (registry.Registration, error) {
	s, ok := LoadSelf(c.Cwd)
	if !ok {
		return registry.Registration{}, meshapi.New(meshapi.KindNotRegistered, "not joined in %s", c.Cwd)
	}
	reg, ok := c.Registry.Get(s.Name)
	if !ok || reg.SessionID != s.SessionID {
		return registry.Registration{}, meshapi.New(meshapi.KindNotRegistered, "stale identity for %s", s.Name)
	}
	return reg, nil
}

func (c *Coordinator) crewStore() *store.Store {
	return store.New(c.Cwd)
}

func (c *Coordinator) orchestrator() *orchestrator.Orchestrator {
	return orchestrator.New(c.Cwd, c.Cfg.Crew, LoadRoster(c.Cwd))
}

// JoinParams names what the host runtime sends on registration.
type JoinParams struct {
	Name        string
	PID         int
	SessionID   string
	Model       string
	SpecPath    string
	HumanDriven bool
}

// Join registers the calling process. When Name is empty a fresh name is
// generated from the configured theme, retried against the currently
// active roster until one is free.
func (c *Coordinator) Join(p JoinParams) (registry.Registration, error) {
	if p.SessionID == "" {
		p.SessionID = uuid.NewString()
	}
	if p.PID == 0 {
		p.PID = os.Getpid()
	}

	name := p.Name
	if name == "" {
		peers, err := c.Registry.GetActiveAgents("", "")
		if err != nil {
			return registry.Registration{}, err
		}
		taken := make(map[string]bool, len(peers))
		for _, peer := range peers {
			taken[peer.Name] = true
		}
		theme := naming.Theme(c.Cfg.NameTheme)
		var generated string
		if theme == naming.ThemeCustom && len(c.Cfg.NameWords) > 0 {
			generated, err = naming.GenerateFromWords(c.Cfg.NameWords, taken)
		} else {
			generated, err = naming.Generate(theme, taken)
		}
		if err != nil {
			return registry.Registration{}, err
		}
		name = generated
	} else if err := naming.ValidateExplicit(name); err != nil {
		return registry.Registration{}, meshapi.New(meshapi.KindInvalidName, "%v", err)
	}

	branch, _ := gitutil.CurrentBranch(c.Cwd)
	now := time.Now()
	reg := registry.Registration{
		Name:        name,
		PID:         p.PID,
		SessionID:   p.SessionID,
		Cwd:         c.Cwd,
		Model:       p.Model,
		StartedAt:   now,
		GitBranch:   branch,
		SpecPath:    p.SpecPath,
		HumanDriven: p.HumanDriven,
		Activity:    registry.Activity{LastActivityAt: now},
	}
	if err := c.Registry.Register(reg); err != nil {
		return registry.Registration{}, err
	}
	if err := SaveSelf(c.Cwd, Self{Name: name, SessionID: p.SessionID}); err != nil {
		return registry.Registration{}, err
	}
	_ = c.Feed.Append(feed.New(feed.KindJoin, name, ""))
	return reg, nil
}

// Leave unregisters the calling process and clears its local identity.
func (c *Coordinator) Leave() error {
	self, err := c.self()
	if err != nil {
		return err
	}
	if err := c.Registry.Unregister(self.Name); err != nil {
		return err
	}
	_ = c.Feed.Append(feed.New(feed.KindLeave, self.Name, ""))
	return ClearSelf(c.Cwd)
}

// AgentView is one peer's presence-annotated registration, as returned
// by List.
type AgentView struct {
	registry.Registration
	Status presence.Status
}

// List returns every other active agent, scoped to this project
// directory when Cfg.ScopeToFolder is set, each annotated with its
// derived presence status.
func (c *Coordinator) List() ([]AgentView, error) {
	self, _ := LoadSelf(c.Cwd)
	scopeCwd := ""
	if c.Cfg.ScopeToFolder {
		scopeCwd = c.Cwd
	}
	peers, err := c.Registry.GetActiveAgents(self.Name, scopeCwd)
	if err != nil {
		return nil, err
	}

	stuckAfter := stuckThreshold(c.Cfg.StuckThresholdSec)
	now := time.Now()
	views := make([]AgentView, 0, len(peers))
	for _, peer := range peers {
		hasClaim := c.peerHasClaim(peer.Name)
		status := presence.Derive(peer, now, stuckAfter, presence.HasClaimOrReservation(peer, hasClaim))
		views = append(views, AgentView{Registration: peer, Status: status})
	}
	return views, nil
}

// Status returns the caller's own registration and derived presence.
func (c *Coordinator) Status() (AgentView, error) {
	reg, err := c.self()
	if err != nil {
		return AgentView{}, err
	}
	stuckAfter := stuckThreshold(c.Cfg.StuckThresholdSec)
	hasClaim := c.peerHasClaim(reg.Name)
	status := presence.Derive(reg, time.Now(), stuckAfter, presence.HasClaimOrReservation(reg, hasClaim))
	return AgentView{Registration: reg, Status: status}, nil
}

// peerHasClaim reports whether name currently holds any swarm claim
// under its own registered spec path.
func (c *Coordinator) peerHasClaim(name string) bool {
	reg, ok := c.Registry.Get(name)
	if !ok || reg.SpecPath == "" {
		return false
	}
	claims, err := c.Swarm.ClaimsForSpec(reg.SpecPath)
	if err != nil {
		return false
	}
	for _, claim := range claims {
		if claim.Agent == name {
			return true
		}
	}
	return false
}

// Send delivers text to recipientName's inbox, fire-and-forget.
func (c *Coordinator) Send(recipientName, text, replyTo string) error {
	self, err := c.self()
	if err != nil {
		return err
	}
	msg := inbox.New(self.Name, recipientName, text, replyTo)
	if err := inbox.SendToAgent(c.Registry, c.BaseDir, recipientName, msg); err != nil {
		return err
	}
	_ = c.Feed.Append(feed.New(feed.KindMessage, self.Name, recipientName))
	return nil
}

// Declare adds a path reservation to the caller's own registration.
func (c *Coordinator) Declare(path, reason string) error {
	reg, err := c.self()
	if err != nil {
		return err
	}
	reservation.Declare(&reg, c.Cwd, path, reason)
	if err := c.Registry.Register(reg); err != nil {
		return err
	}
	_ = c.Feed.Append(feed.New(feed.KindReserve, reg.Name, path))
	return nil
}

// Release removes a path reservation from the caller's own registration.
func (c *Coordinator) Release(path string) error {
	reg, err := c.self()
	if err != nil {
		return err
	}
	reservation.Release(&reg, c.Cwd, path)
	if err := c.Registry.Register(reg); err != nil {
		return err
	}
	_ = c.Feed.Append(feed.New(feed.KindRelease, reg.Name, path))
	return nil
}

// CheckReservation reports whether target is reserved by another active
// peer, scanning every peer (never the caller's own reservations).
func (c *Coordinator) CheckReservation(target string) (*reservation.Conflict, error) {
	self, _ := LoadSelf(c.Cwd)
	peers, err := c.Registry.GetActiveAgents(self.Name, "")
	if err != nil {
		return nil, err
	}
	return reservation.Check(peers, c.Cwd, target)
}

func stuckThreshold(seconds int) time.Duration {
	if seconds <= 0 {
		return constants.DefaultStuckAfter
	}
	return time.Duration(seconds) * time.Second
}
