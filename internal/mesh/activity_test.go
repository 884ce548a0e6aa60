package mesh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pi-messenger/messenger/internal/feed"
	"github.com/pi-messenger/messenger/internal/pathspec"
)

func TestRecordToolCallBumpsCounters(t *testing.T) {
	c := newTestCoordinator(t, t.TempDir())
	_, err := c.Join(JoinParams{Name: "Busy"})
	require.NoError(t, err)

	require.NoError(t, c.RecordToolCall("bash", 120))
	require.NoError(t, c.RecordToolCall("edit", 80))

	reg, ok := c.Registry.Get("Busy")
	require.True(t, ok)
	assert.Equal(t, 2, reg.Counters.ToolCallCount)
	assert.Equal(t, 200, reg.Counters.TokenCount)
	assert.Equal(t, "edit", reg.Activity.LastToolCall)
}

func TestRecordFileEditBoundsListAndFeeds(t *testing.T) {
	c := newTestCoordinator(t, t.TempDir())
	_, err := c.Join(JoinParams{Name: "Editor"})
	require.NoError(t, err)

	require.NoError(t, c.RecordFileEdit("src/a.go"))

	reg, ok := c.Registry.Get("Editor")
	require.True(t, ok)
	assert.Equal(t, []string{"src/a.go"}, reg.Counters.ModifiedFiles)

	events, err := c.RecentFeed(10)
	require.NoError(t, err)
	var kinds []feed.Kind
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Contains(t, kinds, feed.KindEdit)
}

func TestObserveBashDetectsCommitAndTest(t *testing.T) {
	c := newTestCoordinator(t, t.TempDir())
	_, err := c.Join(JoinParams{Name: "Shelly"})
	require.NoError(t, err)

	require.NoError(t, c.ObserveBash(`git commit -m "wip"`, 0))
	require.NoError(t, c.ObserveBash("go test ./...", 1))
	require.NoError(t, c.ObserveBash("ls -la", 0)) // ignored

	events, err := c.RecentFeed(10)
	require.NoError(t, err)

	var sawCommit bool
	var testEv *feed.Event
	for i := range events {
		switch events[i].Kind {
		case feed.KindCommit:
			sawCommit = true
		case feed.KindTest:
			testEv = &events[i]
		}
	}
	assert.True(t, sawCommit)
	require.NotNil(t, testEv)
	require.NotNil(t, testEv.Passed)
	assert.False(t, *testEv.Passed)
}

func TestStuckNotificationsDebouncePerEpisode(t *testing.T) {
	watcherDir, stuckDir := t.TempDir(), t.TempDir()
	t.Setenv("PI_MESSENGER_CONFIG", watcherDir+"/missing.json")
	baseDir := t.TempDir()

	watcher, err := New(baseDir, watcherDir)
	require.NoError(t, err)
	_, err = watcher.Join(JoinParams{Name: "Watcher"})
	require.NoError(t, err)

	victim, err := New(baseDir, stuckDir)
	require.NoError(t, err)
	_, err = victim.Join(JoinParams{Name: "Victim"})
	require.NoError(t, err)

	// Backdate Victim's activity past the stuck threshold and give it a
	// reservation so it derives as stuck rather than away.
	reg, ok := victim.Registry.Get("Victim")
	require.True(t, ok)
	reg.Activity.LastActivityAt = time.Now().Add(-time.Hour)
	reg.Reservations = []pathspec.Reservation{{Path: "/work/file.go"}}
	require.NoError(t, victim.Registry.Register(reg))

	first, err := watcher.StuckNotifications()
	require.NoError(t, err)
	assert.Equal(t, []string{"Victim"}, first)

	second, err := watcher.StuckNotifications()
	require.NoError(t, err)
	assert.Empty(t, second, "same stuck episode must notify only once")
}
