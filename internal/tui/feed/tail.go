// Package feed is a bubbletea live-tail viewer over internal/feed's
// event log, for a human operator watching what a swarm of agents is
// doing in real time.
package feed

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	meshfeed "github.com/pi-messenger/messenger/internal/feed"
)

// tailer watches baseDir/feed.jsonl and delivers newly appended events,
// preferring an fsnotify watch on the containing directory (the feed
// file is truncated and rewritten on retention, so the directory is
// watched rather than the file itself) with a polling fallback.
type tailer struct {
	log     *meshfeed.Log
	baseDir string
	deliver func([]meshfeed.Event)

	lastCount atomic.Int64
	lastStamp atomic.Int64 // UnixNano of the newest event last delivered
	done      chan struct{}
}

func newTailer(baseDir string, deliver func([]meshfeed.Event)) *tailer {
	return &tailer{
		log:     meshfeed.Open(baseDir),
		baseDir: baseDir,
		deliver: deliver,
		done:    make(chan struct{}),
	}
}

func (t *tailer) start(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		go t.pollLoop(ctx)
		return
	}
	if err := watcher.Add(t.baseDir); err != nil {
		_ = watcher.Close()
		go t.pollLoop(ctx)
		return
	}
	go t.watchLoop(ctx, watcher)
}

func (t *tailer) stop() {
	close(t.done)
}

func (t *tailer) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != "feed.jsonl" {
				continue
			}
			if debounce == nil {
				debounce = time.AfterFunc(200*time.Millisecond, t.scan)
			} else {
				debounce.Reset(200 * time.Millisecond)
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (t *tailer) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case <-ticker.C:
			t.scan()
		}
	}
}

func (t *tailer) scan() {
	events, err := t.log.Recent(500)
	if err != nil {
		return
	}
	var stamp int64
	if len(events) > 0 {
		stamp = events[len(events)-1].Timestamp.UnixNano()
	}
	if int64(len(events)) == t.lastCount.Load() && stamp == t.lastStamp.Load() {
		return
	}
	t.lastCount.Store(int64(len(events)))
	t.lastStamp.Store(stamp)
	t.deliver(events)
}
