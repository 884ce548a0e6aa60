package feed

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRecent(t *testing.T) {
	dir := t.TempDir()
	log := Open(dir)

	require.NoError(t, log.Append(New(KindJoin, "Swift", "")))
	require.NoError(t, log.Append(New(KindMessage, "Swift", "Otter")))

	events, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, KindJoin, events[0].Kind)
	assert.Equal(t, "Swift joined the mesh", events[0].Summary())
	assert.Equal(t, "Swift → Otter", events[1].Summary())
}

func TestRecentLimitsToNewest(t *testing.T) {
	dir := t.TempDir()
	log := Open(dir)
	for i := 0; i < 5; i++ {
		require.NoError(t, log.Append(New(KindEdit, "Swift", "a.go")))
	}
	events, err := log.Recent(2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestRecentSkipsUnknownKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.jsonl")
	bad, _ := json.Marshal(map[string]any{"ts": time.Now(), "kind": "nonsense", "agent": "Swift"})
	good, _ := json.Marshal(New(KindLeave, "Swift", ""))
	require.NoError(t, os.WriteFile(path, append(append(bad, '\n'), append(good, '\n')...), 0o644))

	log := Open(dir)
	events, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, KindLeave, events[0].Kind)
}

func TestAppendEditDebounces(t *testing.T) {
	dir := t.TempDir()
	log := Open(dir)

	require.NoError(t, log.AppendEdit("Swift", "a.go"))
	require.NoError(t, log.AppendEdit("Swift", "a.go"))

	events, err := log.Recent(10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestTruncateKeepsNewestHalf(t *testing.T) {
	dir := t.TempDir()
	log := Open(dir)
	for i := 0; i < constantsFeedMaxEntriesForTest()+5; i++ {
		require.NoError(t, log.Append(New(KindTest, "Swift", "")))
	}
	events, err := log.Recent(0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(events), constantsFeedMaxEntriesForTest())
}

func constantsFeedMaxEntriesForTest() int {
	return 2000
}
