package swarm

import (
	"path/filepath"
	"time"

	"github.com/pi-messenger/messenger/internal/atomicio"
	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/meshapi"
	"github.com/pi-messenger/messenger/internal/procutil"
	"github.com/pi-messenger/messenger/internal/registry"
)

// Store is the claims/completions pair under a base directory, guarded
// by the swarm.lock file for every mutation.
type Store struct {
	baseDir string
	reg     *registry.Store
}

// NewStore opens a swarm store rooted at baseDir, using reg to check
// claim owners' liveness and session-id match during GC.
func NewStore(baseDir string, reg *registry.Store) *Store {
	return &Store{baseDir: baseDir, reg: reg}
}

func (s *Store) claimsPath() string      { return filepath.Join(s.baseDir, constants.ClaimsFileName) }
func (s *Store) completionsPath() string { return filepath.Join(s.baseDir, constants.CompletionsFile) }
func (s *Store) lockPath() string        { return filepath.Join(s.baseDir, constants.SwarmLockName) }

func (s *Store) withLock(fn func() error) error {
	lock, err := atomicio.AcquireSwarmLock(s.lockPath())
	if err != nil {
		return meshapi.New(meshapi.KindLocked, "swarm lock held: %v", err)
	}
	defer lock.Release()
	return fn()
}

func (s *Store) readClaims() claimsFile {
	var c claimsFile
	if err := atomicio.ReadJSON(s.claimsPath(), &c); err != nil || c == nil {
		return claimsFile{}
	}
	return c
}

func (s *Store) readCompletions() completionsFile {
	var c completionsFile
	if err := atomicio.ReadJSON(s.completionsPath(), &c); err != nil || c == nil {
		return completionsFile{}
	}
	return c
}

func (s *Store) writeClaims(c claimsFile) error {
	return atomicio.WriteJSONAtomic(s.claimsPath(), c)
}

func (s *Store) writeCompletions(c completionsFile) error {
	return atomicio.WriteJSONAtomic(s.completionsPath(), c)
}

// gcStaleClaims removes, in place, any claim whose PID is dead, whose
// registration is missing, or whose registration's session id no longer
// matches the claim's. Runs on every entry to the critical section, on
// both read and write paths.
func (s *Store) gcStaleClaims(c claimsFile) (changed bool) {
	for spec, tasks := range c {
		for taskID, claim := range tasks {
			if s.isStale(claim) {
				delete(tasks, taskID)
				changed = true
			}
		}
		if len(tasks) == 0 {
			delete(c, spec)
		}
	}
	return changed
}

func (s *Store) isStale(claim Claim) bool {
	if !procutil.IsAlive(claim.PID) {
		return true
	}
	reg, ok := s.reg.Get(claim.Agent)
	if !ok {
		return true
	}
	return reg.SessionID != claim.SessionID
}

// findAgentClaim returns the (spec, taskID, claim) the agent currently
// holds anywhere, if any.
func findAgentClaim(c claimsFile, agent string) (spec, taskID string, claim Claim, found bool) {
	for sp, tasks := range c {
		for id, cl := range tasks {
			if cl.Agent == agent {
				return sp, id, cl, true
			}
		}
	}
	return "", "", Claim{}, false
}

// Claim enforces the two swarm invariants under the lock: the agent has
// no other active claim anywhere, and the target (spec, taskID) has no
// non-stale claim.
func (s *Store) Claim(spec, taskID, agent, sessionID string, pid int, reason string) error {
	return s.withLock(func() error {
		// Completions are terminal: a completed slot never accepts a new
		// claim, even from the original completer.
		completions := s.readCompletions()
		if tasks, ok := completions[spec]; ok {
			if _, ok := tasks[taskID]; ok {
				return meshapi.New(meshapi.KindAlreadyCompleted, "%s/%s already completed", spec, taskID)
			}
		}

		claims := s.readClaims()
		s.gcStaleClaims(claims)

		if existingSpec, existingTask, existing, found := findAgentClaim(claims, agent); found {
			if existingSpec == spec && existingTask == taskID {
				return nil
			}
			return meshapi.New(meshapi.KindAlreadyHaveClaim, "%s already holds %s/%s", agent, existingSpec, existingTask).
				WithDetails(map[string]any{"spec": existingSpec, "taskId": existingTask, "claim": existing})
		}

		if tasks, ok := claims[spec]; ok {
			if existing, ok := tasks[taskID]; ok {
				return meshapi.New(meshapi.KindAlreadyClaimed, "%s/%s already claimed by %s", spec, taskID, existing.Agent).
					WithDetails(map[string]any{"claim": existing})
			}
		}

		if claims[spec] == nil {
			claims[spec] = make(map[string]Claim)
		}
		claims[spec][taskID] = Claim{Agent: agent, SessionID: sessionID, PID: pid, Timestamp: time.Now(), Reason: reason}

		return s.writeClaims(claims)
	})
}

// Unclaim removes agent's claim on (spec, taskID), verifying agent is
// the current claimant.
func (s *Store) Unclaim(spec, taskID, agent string) error {
	return s.withLock(func() error {
		claims := s.readClaims()
		s.gcStaleClaims(claims)

		tasks, ok := claims[spec]
		if !ok {
			return meshapi.New(meshapi.KindNotClaimed, "%s/%s is not claimed", spec, taskID)
		}
		claim, ok := tasks[taskID]
		if !ok {
			return meshapi.New(meshapi.KindNotClaimed, "%s/%s is not claimed", spec, taskID)
		}
		if claim.Agent != agent {
			return meshapi.New(meshapi.KindNotYourClaim, "%s/%s is claimed by %s, not %s", spec, taskID, claim.Agent, agent)
		}
		delete(tasks, taskID)
		if len(tasks) == 0 {
			delete(claims, spec)
		}
		return s.writeClaims(claims)
	})
}

// Complete moves (spec, taskID) from claims to completions. Write
// ordering is completions-first: a crash between the two writes leaves
// the completion durable and a dangling claim that the next GC pass
// collects.
func (s *Store) Complete(spec, taskID, completer, notes string) error {
	return s.withLock(func() error {
		completions := s.readCompletions()
		if tasks, ok := completions[spec]; ok {
			if _, ok := tasks[taskID]; ok {
				return meshapi.New(meshapi.KindAlreadyCompleted, "%s/%s already completed", spec, taskID)
			}
		}

		if completions[spec] == nil {
			completions[spec] = make(map[string]Completion)
		}
		completions[spec][taskID] = Completion{Completer: completer, Timestamp: time.Now(), Notes: notes}
		if err := s.writeCompletions(completions); err != nil {
			return err
		}

		claims := s.readClaims()
		if tasks, ok := claims[spec]; ok {
			delete(tasks, taskID)
			if len(tasks) == 0 {
				delete(claims, spec)
			}
			_ = s.writeClaims(claims)
		}
		return nil
	})
}

// IsComplete reports whether (spec, taskID) has a completion recorded.
func (s *Store) IsComplete(spec, taskID string) bool {
	completions := s.readCompletions()
	tasks, ok := completions[spec]
	if !ok {
		return false
	}
	_, ok = tasks[taskID]
	return ok
}

// ClaimsForSpec returns the live (GC'd) claims for spec, after running
// stale-claim GC and persisting any change.
func (s *Store) ClaimsForSpec(spec string) (map[string]Claim, error) {
	var result map[string]Claim
	err := s.withLock(func() error {
		claims := s.readClaims()
		if s.gcStaleClaims(claims) {
			if err := s.writeClaims(claims); err != nil {
				return err
			}
		}
		result = claims[spec]
		return nil
	})
	return result, err
}
