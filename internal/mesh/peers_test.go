package mesh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pi-messenger/messenger/internal/inbox"
	"github.com/pi-messenger/messenger/internal/meshapi"
)

func TestWhoisReturnsPeerDetail(t *testing.T) {
	aDir, bDir := t.TempDir(), t.TempDir()
	t.Setenv("PI_MESSENGER_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	baseDir := t.TempDir()

	a, err := New(baseDir, aDir)
	require.NoError(t, err)
	_, err = a.Join(JoinParams{Name: "Alpha"})
	require.NoError(t, err)

	b, err := New(baseDir, bDir)
	require.NoError(t, err)
	_, err = b.Join(JoinParams{Name: "Beta"})
	require.NoError(t, err)

	view, err := b.Whois("Alpha")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", view.Name)
	assert.Equal(t, aDir, view.Cwd)

	_, err = b.Whois("Nobody")
	require.Error(t, err)
	assert.True(t, meshapi.As(err, meshapi.KindNotFound))
}

func TestSetStatusAndSpecPersist(t *testing.T) {
	cwd := t.TempDir()
	c := newTestCoordinator(t, cwd)
	_, err := c.Join(JoinParams{Name: "Quiet"})
	require.NoError(t, err)

	require.NoError(t, c.SetStatus("refactoring the parser"))
	require.NoError(t, c.SetSpec("docs/PRD.md"))

	reg, ok := c.Registry.Get("Quiet")
	require.True(t, ok)
	assert.Equal(t, "refactoring the parser", reg.StatusMessage)
	assert.Equal(t, "docs/PRD.md", reg.SpecPath)
}

func TestRenameKeepsSessionAndInbox(t *testing.T) {
	senderDir, targetDir := t.TempDir(), t.TempDir()
	t.Setenv("PI_MESSENGER_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	baseDir := t.TempDir()

	target, err := New(baseDir, targetDir)
	require.NoError(t, err)
	before, err := target.Join(JoinParams{Name: "Before"})
	require.NoError(t, err)

	sender, err := New(baseDir, senderDir)
	require.NoError(t, err)
	_, err = sender.Join(JoinParams{Name: "Sender"})
	require.NoError(t, err)

	// A message in flight before the rename must survive it: the inbox is
	// keyed by session id, not name.
	require.NoError(t, sender.Send("Before", "pre-rename", ""))

	require.NoError(t, target.Rename("After"))

	_, ok := target.Registry.Get("Before")
	assert.False(t, ok)
	after, ok := target.Registry.Get("After")
	require.True(t, ok)
	assert.Equal(t, before.SessionID, after.SessionID)

	var got []string
	require.NoError(t, inbox.Drain(baseDir, after.SessionID, func(msg inbox.Message) {
		got = append(got, msg.Text)
	}))
	assert.Equal(t, []string{"pre-rename"}, got)

	// Senders now reach the new name.
	require.NoError(t, sender.Send("After", "post-rename", ""))
}

func TestRenameRejectsTakenName(t *testing.T) {
	aDir, bDir := t.TempDir(), t.TempDir()
	t.Setenv("PI_MESSENGER_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	baseDir := t.TempDir()

	// Alpha is owned by a different live process (the test runner's
	// parent), so the rename race check sees a foreign PID.
	a, err := New(baseDir, aDir)
	require.NoError(t, err)
	_, err = a.Join(JoinParams{Name: "Alpha", PID: os.Getppid()})
	require.NoError(t, err)

	b, err := New(baseDir, bDir)
	require.NoError(t, err)
	_, err = b.Join(JoinParams{Name: "Beta"})
	require.NoError(t, err)

	err = b.Rename("Alpha")
	require.Error(t, err)
	assert.True(t, meshapi.As(err, meshapi.KindNameTaken))

	// The loser keeps its old identity.
	_, ok := b.Registry.Get("Beta")
	assert.True(t, ok)
}

func TestBroadcastReachesEveryPeer(t *testing.T) {
	t.Setenv("PI_MESSENGER_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	baseDir := t.TempDir()

	sender, err := New(baseDir, t.TempDir())
	require.NoError(t, err)
	_, err = sender.Join(JoinParams{Name: "Caller"})
	require.NoError(t, err)

	names := []string{"One", "Two", "Three"}
	for _, name := range names {
		p, err := New(baseDir, t.TempDir())
		require.NoError(t, err)
		_, err = p.Join(JoinParams{Name: name})
		require.NoError(t, err)
	}

	result, err := sender.Broadcast("all hands")
	require.NoError(t, err)
	assert.ElementsMatch(t, names, result.Sent)
	assert.Empty(t, result.Failed)

	for _, name := range names {
		reg, ok := sender.Registry.Get(name)
		require.True(t, ok)
		var got []inbox.Message
		require.NoError(t, inbox.Drain(baseDir, reg.SessionID, func(msg inbox.Message) {
			got = append(got, msg)
		}))
		require.Len(t, got, 1)
		assert.Equal(t, "all hands", got[0].Text)
		assert.Equal(t, "Caller", got[0].Sender)
	}
}

func TestCrewInstallStatusValidate(t *testing.T) {
	cwd := t.TempDir()
	c := newTestCoordinator(t, cwd)
	_, err := c.Join(JoinParams{Name: "Lead"})
	require.NoError(t, err)

	roster, err := c.CrewInstall()
	require.NoError(t, err)
	assert.Equal(t, "worker", roster.Worker)

	// Install is idempotent: a second call returns the existing roster.
	again, err := c.CrewInstall()
	require.NoError(t, err)
	assert.Equal(t, roster, again)

	s := c.crewStore()
	_, err = s.CreatePlan("PRD.md")
	require.NoError(t, err)
	first, err := s.CreateTask("first", nil, "")
	require.NoError(t, err)
	_, err = s.CreateTask("second", []string{first.ID}, "")
	require.NoError(t, err)

	status, err := c.CrewStatusReport()
	require.NoError(t, err)
	assert.Equal(t, 2, status.Todo)
	assert.Equal(t, []string{first.ID}, status.Ready)

	plan, err := c.CrewValidate()
	require.NoError(t, err)
	assert.Equal(t, 2, plan.TaskCount)
	assert.Equal(t, 0, plan.CompletedCount)

	require.NoError(t, c.CrewUninstall())
	assert.Equal(t, "", LoadRoster(cwd).Worker)
}
