// Package registry manages per-agent registration files: who is alive,
// where they are, and what they are doing. Liveness is determined purely
// by whether the recorded PID still exists — there is no heartbeat.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/meshapi"
	"github.com/pi-messenger/messenger/internal/naming"
	"github.com/pi-messenger/messenger/internal/procutil"
)

// Store is the registry directory under a base directory, plus the
// listing cache that bounds the cost of the hot path (called on every
// keystroke and write-enforcement check).
type Store struct {
	baseDir string

	mu        sync.Mutex
	cache     map[string][]Registration // keyed by cacheKey(excludeName, cwd)
	cacheAt   map[string]time.Time
}

// NewStore opens the registry rooted at baseDir (created lazily).
func NewStore(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		cache:   make(map[string][]Registration),
		cacheAt: make(map[string]time.Time),
	}
}

func (s *Store) dir() string {
	return filepath.Join(s.baseDir, constants.RegistryDirName)
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir(), name+".json")
}

// Register writes reg atomically, then reads it back and verifies its
// own PID to detect a lost race against a concurrent writer of the same
// name. If the file on disk names a different, live PID, registration
// fails without touching the file.
func (s *Store) Register(reg Registration) error {
	if !naming.Valid(reg.Name) {
		return meshapi.New(meshapi.KindInvalidName, "invalid name %q", reg.Name)
	}

	path := s.path(reg.Name)
	if existing, err := s.readOne(path); err == nil {
		if procutil.IsAlive(existing.PID) && existing.PID != reg.PID {
			return meshapi.New(meshapi.KindNameTaken, "name %q is already registered", reg.Name)
		}
	}

	if err := atomicio.WriteJSONAtomic(path, reg); err != nil {
		return meshapi.New(meshapi.KindRegistrationFailed, "writing registration: %v", err)
	}

	readBack, err := s.readOne(path)
	if err != nil {
		return meshapi.New(meshapi.KindRegistrationFailed, "verifying registration: %v", err)
	}
	if readBack.PID != reg.PID {
		return meshapi.New(meshapi.KindRaceLost, "lost registration race for %q to pid %d", reg.Name, readBack.PID)
	}

	s.invalidate()
	return nil
}

// Unregister removes name's registration file. Called on clean shutdown
// by the owning process; the inbox directory, keyed by session id, is a
// separate concern and is left untouched here.
func (s *Store) Unregister(name string) error {
	err := os.Remove(s.path(name))
	s.invalidate()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Get returns name's registration if its file exists and parses. It does
// not perform liveness GC; callers that want that should use
// GetActiveAgents.
func (s *Store) Get(name string) (Registration, bool) {
	reg, err := s.readOne(s.path(name))
	if err != nil {
		return Registration{}, false
	}
	return reg, true
}

// GetActiveAgents scans the registry, drops and deletes entries whose
// PID is dead, and returns the rest excluding excludeName. Results are
// cached for constants.ActiveAgentsCacheTTL, keyed by (excludeName, cwd)
// when folder scoping (cwd != "") is requested.
func (s *Store) GetActiveAgents(excludeName, cwd string) ([]Registration, error) {
	key := cacheKey(excludeName, cwd)

	s.mu.Lock()
	if cached, ok := s.cache[key]; ok && time.Since(s.cacheAt[key]) < constants.ActiveAgentsCacheTTL {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	entries, err := os.ReadDir(s.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning registry: %w", err)
	}

	var active []Registration
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir(), entry.Name())
		reg, err := s.readOne(path)
		if err != nil {
			// Malformed file: skip silently, per the atomic-IO contract.
			continue
		}
		if !procutil.IsAlive(reg.PID) {
			_ = os.Remove(path)
			continue
		}
		if reg.Name == excludeName {
			continue
		}
		if cwd != "" && reg.Cwd != cwd {
			continue
		}
		active = append(active, reg)
	}

	s.mu.Lock()
	s.cache[key] = active
	s.cacheAt[key] = time.Now()
	s.mu.Unlock()

	return active, nil
}

// RenameAgent moves a registration from oldName to newName, preserving
// the session id (and therefore the inbox directory, which is keyed by
// session id, never by name) so no in-flight messages are orphaned.
// Callers drain the old name's pending inbox themselves before calling
// this, or after — the inbox path does not change either way.
func (s *Store) RenameAgent(oldName, newName string) error {
	old, ok := s.Get(oldName)
	if !ok {
		return meshapi.New(meshapi.KindNotFound, "no registration for %q", oldName)
	}
	if !naming.Valid(newName) {
		return meshapi.New(meshapi.KindInvalidName, "invalid name %q", newName)
	}

	renamed := old
	renamed.Name = newName
	if err := s.Register(renamed); err != nil {
		return err
	}
	return s.Unregister(oldName)
}

func (s *Store) readOne(path string) (Registration, error) {
	var reg Registration
	data, err := os.ReadFile(path)
	if err != nil {
		return Registration{}, err
	}
	if err := json.Unmarshal(data, &reg); err != nil {
		return Registration{}, err
	}
	return reg, nil
}

func (s *Store) invalidate() {
	s.mu.Lock()
	s.cache = make(map[string][]Registration)
	s.cacheAt = make(map[string]time.Time)
	s.mu.Unlock()
}

func cacheKey(excludeName, cwd string) string {
	return excludeName + "\x00" + cwd
}
