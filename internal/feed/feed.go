package feed

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/pi-messenger/messenger/internal/constants"
)

// Log appends to and reads baseDir/feed.jsonl, bounding retention to
// constants.FeedMaxEntries. An in-process mutex complements the flock
// (which only coordinates across OS processes sharing the same file).
type Log struct {
	path string
	mu   sync.Mutex

	debounceMu sync.Mutex
	lastEdit   map[string]time.Time // agent+path -> last emitted edit, for EditDebounce
}

// Open returns a Log rooted at baseDir.
func Open(baseDir string) *Log {
	return &Log{
		path:     filepath.Join(baseDir, constants.FeedFileName),
		lastEdit: make(map[string]time.Time),
	}
}

// Append writes ev to the feed under the cross-process lock, truncating
// the file to its newest half first if it has grown past the retention
// bound.
func (l *Log) Append(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	fl := flock.New(l.path + ".lock")
	if err := fl.Lock(); err != nil {
		return err
	}
	defer fl.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}

	if n, err := l.countLines(); err == nil && n >= constants.FeedMaxEntries {
		if err := l.truncateLocked(); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// AppendEdit records a KindEdit event for path by agent, coalescing
// bursts within constants.EditDebounce into a single feed line.
func (l *Log) AppendEdit(agent, path string) error {
	key := agent + "\x00" + path
	l.debounceMu.Lock()
	last, seen := l.lastEdit[key]
	now := time.Now()
	if seen && now.Sub(last) < constants.EditDebounce {
		l.debounceMu.Unlock()
		return nil
	}
	l.lastEdit[key] = now
	l.debounceMu.Unlock()

	return l.Append(New(KindEdit, agent, path))
}

// Recent returns up to limit most recent, well-formed events (oldest
// first). Lines that fail to decode — including lines naming an unknown
// Kind — are skipped, per the atomic-IO "malformed files are skipped
// silently" convention.
func (l *Log) Recent(limit int) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var all []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		all = append(all, ev)
	}

	if limit <= 0 || len(all) <= limit {
		return all, nil
	}
	return all[len(all)-limit:], nil
}

func (l *Log) countLines() (int, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		n++
	}
	return n, nil
}

// truncateLocked keeps the newest half of the feed file by line count.
// Must be called while holding both l.mu and the cross-process flock.
func (l *Log) truncateLocked() error {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		lines = append(lines, line)
	}
	f.Close()

	keep := len(lines) / 2
	if keep < 1 {
		keep = len(lines)
	}
	lines = lines[len(lines)-keep:]

	tmp := l.path + ".truncate.tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := out.Write(line); err != nil {
			out.Close()
			os.Remove(tmp)
			return err
		}
		if _, err := out.Write([]byte("\n")); err != nil {
			out.Close()
			os.Remove(tmp)
			return err
		}
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	out.Close()
	return os.Rename(tmp, l.path)
}
