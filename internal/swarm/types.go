// Package swarm implements the claim/complete protocol: at most one
// claim per agent globally, at most one claim per (spec, task id),
// completions terminal, everything serialized by the swarm.lock file.
package swarm

import "time"

// Claim records one agent's exclusive hold on a (spec, task id) pair.
type Claim struct {
	Agent     string    `json:"agent"`
	SessionID string    `json:"sessionId"`
	PID       int       `json:"pid"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

// Completion is the terminal record left behind once a task is done. It
// outlives the claim and is never garbage-collected.
type Completion struct {
	Completer string    `json:"completer"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

// claimsFile is the on-disk shape of claims.json: absolute spec path ->
// task id -> claim.
type claimsFile map[string]map[string]Claim

// completionsFile is the on-disk shape of completions.json, same keying.
type completionsFile map[string]map[string]Completion
