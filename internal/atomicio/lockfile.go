package atomicio

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/procutil"
)

// Lock is a held exclusive-create lock file. Its content is the holder's
// PID, written so a contender that finds the lock already held can decide
// whether it is stale without needing the flock syscall to tell it.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire takes path as an exclusive lock, writing the caller's PID as
// its content. If the lock is currently held, Acquire retries up to
// attempts times at interval, evicting the held lock first if its mtime
// is older than staleAfter and its recorded PID is no longer alive.
func Acquire(path string, staleAfter time.Duration, interval time.Duration, attempts int) (*Lock, error) {
	fl := flock.New(path)
	for i := 0; i < attempts; i++ {
		locked, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquiring lock %s: %w", path, err)
		}
		if locked {
			if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
				_ = fl.Unlock()
				return nil, fmt.Errorf("writing lock holder: %w", err)
			}
			return &Lock{path: path, fl: fl}, nil
		}
		if evictStaleLock(path, staleAfter) {
			continue
		}
		time.Sleep(interval)
	}
	return nil, fmt.Errorf("locked: %s held by another process", path)
}

// AcquireSwarmLock uses the default swarm.lock stale window and retry
// budget.
func AcquireSwarmLock(path string) (*Lock, error) {
	return Acquire(path, constants.SwarmLockStale, constants.LockRetryInterval, constants.LockRetryAttempts)
}

// AcquirePlanLock uses the longer crew/plan.lock stale window.
func AcquirePlanLock(path string) (*Lock, error) {
	return Acquire(path, constants.PlanLockStale, constants.LockRetryInterval, constants.LockRetryAttempts)
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	defer os.Remove(l.path)
	return l.fl.Unlock()
}

// evictStaleLock removes path if its mtime is older than staleAfter and
// the PID recorded in its content is no longer alive. Returns true if it
// evicted the lock (the caller should retry the TryLock immediately).
func evictStaleLock(path string, staleAfter time.Duration) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) < staleAfter {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		// Unreadable holder PID on a stale-aged lock: treat as abandoned.
		_ = os.Remove(path)
		return true
	}
	if procutil.IsAlive(pid) {
		return false
	}
	_ = os.Remove(path)
	return true
}
