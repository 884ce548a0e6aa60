package inbox

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pi-messenger/messenger/internal/constants"
)

// Watcher tails one session's inbox directory and delivers messages as
// they arrive, preferring an fsnotify watch with a debounced scan and
// falling back to polling if the watcher can't be established or keeps
// erroring.
type Watcher struct {
	baseDir   string
	sessionID string
	deliver   func(Message)

	scanning atomic.Bool // re-entrancy guard: a scan already running
	rescan   atomic.Bool // another scan was requested while one ran

	mu   sync.Mutex
	done chan struct{}
}

// NewWatcher builds a Watcher for sessionID. Call Start to begin tailing.
func NewWatcher(baseDir, sessionID string, deliver func(Message)) *Watcher {
	return &Watcher{baseDir: baseDir, sessionID: sessionID, deliver: deliver}
}

// Start runs the watch loop until ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	w.done = make(chan struct{})
	w.mu.Unlock()

	dir := Dir(w.baseDir, w.sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		go w.pollLoop(ctx)
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		go w.pollLoop(ctx)
		return
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		go w.pollLoop(ctx)
		return
	}

	go w.watchLoop(ctx, watcher)
}

// Stop ends the watch loop.
func (w *Watcher) Stop() {
	w.mu.Lock()
	d := w.done
	w.mu.Unlock()
	if d != nil {
		close(d)
	}
}

func (w *Watcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var debounce *time.Timer
	var retries int
	backoff := 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case _, ok := <-watcher.Events:
			if !ok {
				return
			}
			if debounce == nil {
				debounce = time.AfterFunc(constants.InboxDebounce, w.scan)
			} else {
				debounce.Reset(constants.InboxDebounce)
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			retries++
			if retries > constants.MaxWatcherRetries {
				_ = watcher.Close()
				go w.pollLoop(ctx)
				return
			}
			if backoff > constants.MaxWatcherBackoff {
				backoff = constants.MaxWatcherBackoff
			}
			time.Sleep(backoff)
			backoff *= 2
		}
	}
}

// pollLoop is the fallback transport: once engaged, it remains the
// transport for the rest of the process's life.
func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(constants.PollFallbackInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

// scan drains the inbox once. If a scan is already running when another
// is requested, the request is deferred and re-run once the first scan
// finishes, so bursts of filesystem events collapse into at most one
// extra scan rather than stacking concurrent drains.
func (w *Watcher) scan() {
	if !w.scanning.CompareAndSwap(false, true) {
		w.rescan.Store(true)
		return
	}
	defer w.scanning.Store(false)

	for {
		_ = Drain(w.baseDir, w.sessionID, w.deliver)
		if !w.rescan.CompareAndSwap(true, false) {
			return
		}
	}
}
