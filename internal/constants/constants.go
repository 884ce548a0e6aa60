// Package constants holds shared paths, filenames, and timing constants
// used across the mesh and crew packages.
package constants

import "time"

const (
	// DefaultBaseDirName is the default base directory under the user's
	// home, relative to "~".
	DefaultBaseDirName = ".pi/agent/messenger"

	// ConfigEnvVar overrides the config file path, for tests.
	ConfigEnvVar = "PI_MESSENGER_CONFIG"
	// BaseDirEnvVar overrides the base directory, for tests.
	BaseDirEnvVar = "PI_MESSENGER_BASE"

	RegistryDirName    = "registry"
	InboxDirName       = "inbox"
	DeadLetterDirName  = ".deadletter"
	ClaimsFileName     = "claims.json"
	CompletionsFile    = "completions.json"
	FeedFileName       = "feed.jsonl"
	SwarmLockName      = "swarm.lock"

	CrewDirName     = "crew"
	TasksDirName    = "tasks"
	BlocksDirName   = "blocks"
	PlanFileName    = "plan.json"
	PlanSpecName    = "plan.md"
	PlanLockName    = "plan.lock"
	ArtifactsDir    = "artifacts"

	PlanningProgressName   = "planning-progress.md"
	InterviewQuestionsName = "interview-questions.json"
	CrewConfigName         = "config.json"

	// ProjectDirName is the per-project directory holding crew/, rooted
	// under <cwd>/.pi/messenger.
	ProjectDirName = ".pi/messenger"
)

const (
	// SwarmLockStale is the mtime age past which a held swarm.lock is
	// considered abandoned and eligible for eviction (if its PID is dead).
	SwarmLockStale = 10 * time.Second
	// PlanLockStale is the same idea for crew/plan.lock, sized for
	// multi-minute planning runs.
	PlanLockStale = 10 * time.Minute

	// LockRetryInterval and LockRetryAttempts bound how long a contender
	// waits for a held lock before giving up.
	LockRetryInterval = 100 * time.Millisecond
	LockRetryAttempts = 50

	// ActiveAgentsCacheTTL bounds the cost of the registry hot path.
	ActiveAgentsCacheTTL = 1 * time.Second

	// InboxDebounce coalesces bursts of inbox filesystem events into a
	// single scan.
	InboxDebounce = 50 * time.Millisecond
	// PollFallbackInterval is used once the watcher gives up.
	PollFallbackInterval = 1500 * time.Millisecond
	// MaxWatcherRetries bounds the exponential backoff before falling
	// back to polling for the remainder of the process lifetime.
	MaxWatcherRetries  = 6
	MaxWatcherBackoff  = 30 * time.Second

	// Presence thresholds, see presence.Status.
	ActiveWindow        = 30 * time.Second
	IdleWindow          = 5 * time.Minute
	DefaultStuckAfter   = 900 * time.Second
	EditDebounce        = 5 * time.Second

	// FeedMaxEntries bounds the activity feed's retained length.
	FeedMaxEntries = 2000
)

// Orchestrator prompt/content size bounds, in bytes.
const (
	PRDMaxBytes             = 100 * 1024
	PlanningProgressMaxBytes = 50 * 1024
	DiffMaxBytes            = 50 * 1024
)
