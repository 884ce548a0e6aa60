// Package config loads the mesh/crew configuration file
// (~/.pi/agent/pi-messenger.json by default). The file format is fixed
// by the host runtime's contract, so this is plain encoding/json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/naming"
	"github.com/pi-messenger/messenger/internal/util"
)

// Concurrency caps the orchestrator's child-process fan-out.
type Concurrency struct {
	Scouts  int `json:"scouts"`
	Workers int `json:"workers"`
}

// Work bounds the work-wave loop's retries and waves.
type Work struct {
	MaxAttemptsPerTask int `json:"maxAttemptsPerTask"`
	MaxWaves           int `json:"maxWaves"`
}

// Review configures the automatic reviewer pass after `work`.
type Review struct {
	Enabled       bool `json:"enabled"`
	MaxIterations int  `json:"maxIterations"`
}

// Planning bounds the plan-refinement loop.
type Planning struct {
	MaxPasses int `json:"maxPasses"`
}

// Artifacts configures per-run child transcript retention.
type Artifacts struct {
	Enabled     bool `json:"enabled"`
	CleanupDays int  `json:"cleanupDays"`
}

// Crew groups the orchestrator's tunables.
type Crew struct {
	Concurrency Concurrency `json:"concurrency"`
	Work        Work        `json:"work"`
	Review      Review      `json:"review"`
	Planning    Planning    `json:"planning"`
	Artifacts   Artifacts   `json:"artifacts"`
}

// Config is the full on-disk configuration, with JSON defaults applied
// for any key absent from the file.
type Config struct {
	AutoRegister      bool     `json:"autoRegister"`
	AutoRegisterPaths []string `json:"autoRegisterPaths,omitempty"`
	ScopeToFolder     bool     `json:"scopeToFolder"`
	StuckThresholdSec int      `json:"stuckThreshold"`
	NameTheme         string   `json:"nameTheme,omitempty"`
	NameWords         []string `json:"nameWords,omitempty"`

	RegistrationContext        string `json:"registrationContext,omitempty"`
	ReplyHint                  string `json:"replyHint,omitempty"`
	SenderDetailsOnFirstContact bool  `json:"senderDetailsOnFirstContact"`

	Crew Crew `json:"crew"`
}

// Default returns the documented defaults for every key.
func Default() Config {
	return Config{
		AutoRegister:                false,
		ScopeToFolder:               false,
		StuckThresholdSec:           int(constants.DefaultStuckAfter.Seconds()),
		NameTheme:                   string(naming.ThemeDefault),
		SenderDetailsOnFirstContact: true,
		Crew: Crew{
			Concurrency: Concurrency{Scouts: 3, Workers: 2},
			Work:        Work{MaxAttemptsPerTask: 3, MaxWaves: 10},
			Review:      Review{Enabled: true, MaxIterations: 2},
			Planning:    Planning{MaxPasses: 3},
			Artifacts:   Artifacts{Enabled: true, CleanupDays: 14},
		},
	}
}

// Path returns the config file path, honoring constants.ConfigEnvVar.
func Path() string {
	if p := os.Getenv(constants.ConfigEnvVar); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pi", "agent", "pi-messenger.json")
}

// Load reads Path(), merging onto Default(). A missing file is not an
// error — Default() alone is returned.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom is Load with an explicit path, for tests.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	// Decode onto the defaults so unspecified keys keep their default
	// rather than zeroing out.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// MatchesAutoRegister reports whether cwd matches one of cfg's
// autoRegisterPaths entries. Each entry is expanded for a leading "~/"
// and matched segment-by-segment with path/filepath.Match, so a glob
// like "~/code/*/backend" matches any backend directory one level under
// any project in ~/code.
func (c Config) MatchesAutoRegister(cwd string) bool {
	if !c.AutoRegister {
		return false
	}
	if len(c.AutoRegisterPaths) == 0 {
		return true
	}
	cwd = filepath.Clean(cwd)
	for _, pattern := range c.AutoRegisterPaths {
		if matchPath(util.ExpandHome(pattern), cwd) {
			return true
		}
	}
	return false
}

func matchPath(pattern, target string) bool {
	pattern = filepath.Clean(pattern)
	patSegs := strings.Split(filepath.ToSlash(pattern), "/")
	tgtSegs := strings.Split(filepath.ToSlash(target), "/")
	if len(patSegs) != len(tgtSegs) {
		return false
	}
	for i, seg := range patSegs {
		ok, err := filepath.Match(seg, tgtSegs[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}
