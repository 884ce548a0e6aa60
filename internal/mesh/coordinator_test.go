package mesh

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pi-messenger/messenger/internal/constants"
	"github.com/pi-messenger/messenger/internal/crew/store"
	"github.com/pi-messenger/messenger/internal/inbox"
	"github.com/pi-messenger/messenger/internal/meshapi"
)

func newTestCoordinator(t *testing.T, cwd string) *Coordinator {
	t.Helper()
	t.Setenv("PI_MESSENGER_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	baseDir := t.TempDir()
	c, err := New(baseDir, cwd)
	require.NoError(t, err)
	return c
}

func TestJoinGeneratesNameAndPersistsSelf(t *testing.T) {
	cwd := t.TempDir()
	c := newTestCoordinator(t, cwd)

	reg, err := c.Join(JoinParams{})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Name)

	self, ok := LoadSelf(cwd)
	require.True(t, ok)
	assert.Equal(t, reg.Name, self.Name)
	assert.Equal(t, reg.SessionID, self.SessionID)
}

func TestJoinRejectsInvalidExplicitName(t *testing.T) {
	c := newTestCoordinator(t, t.TempDir())
	_, err := c.Join(JoinParams{Name: "not a valid name!"})
	require.Error(t, err)
}

func TestDispatchGatesUntilJoined(t *testing.T) {
	cwd := t.TempDir()
	c := newTestCoordinator(t, cwd)

	_, err := c.Router.Dispatch("status", nil)
	require.Error(t, err)
	assert.True(t, meshapi.As(err, meshapi.KindNotRegistered))

	_, err = c.Router.Dispatch("join", map[string]any{"name": "Swift"})
	require.NoError(t, err)

	_, err = c.Router.Dispatch("status", nil)
	require.NoError(t, err)
}

func TestSendDeliversToRegisteredRecipient(t *testing.T) {
	senderDir, recipientDir := t.TempDir(), t.TempDir()
	t.Setenv("PI_MESSENGER_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	baseDir := t.TempDir()

	sender, err := New(baseDir, senderDir)
	require.NoError(t, err)
	_, err = sender.Join(JoinParams{Name: "Sender"})
	require.NoError(t, err)

	recipient, err := New(baseDir, recipientDir)
	require.NoError(t, err)
	_, err = recipient.Join(JoinParams{Name: "Recipient"})
	require.NoError(t, err)

	require.NoError(t, sender.Send("Recipient", "hello", ""))

	reg, ok := recipient.Registry.Get("Recipient")
	require.True(t, ok)

	var delivered inbox.Message
	require.NoError(t, inbox.Drain(baseDir, reg.SessionID, func(msg inbox.Message) {
		delivered = msg
	}))
	assert.Equal(t, "hello", delivered.Text)
	assert.Equal(t, "Sender", delivered.Sender)
}

func TestReserveDeclareThenCheckConflicts(t *testing.T) {
	ownerDir, checkerDir := t.TempDir(), t.TempDir()
	t.Setenv("PI_MESSENGER_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	baseDir := t.TempDir()

	owner, err := New(baseDir, ownerDir)
	require.NoError(t, err)
	_, err = owner.Join(JoinParams{Name: "Owner"})
	require.NoError(t, err)
	require.NoError(t, owner.Declare("src/main.go", "editing"))

	checker, err := New(baseDir, checkerDir)
	require.NoError(t, err)
	_, err = checker.Join(JoinParams{Name: "Checker"})
	require.NoError(t, err)

	conflict, err := checker.CheckReservation(filepath.Join(ownerDir, "src/main.go"))
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, "Owner", conflict.PeerName)

	require.NoError(t, owner.Release("src/main.go"))
	// The checker's registry caches its peer listing for
	// constants.ActiveAgentsCacheTTL; the release shows once that expires.
	time.Sleep(constants.ActiveAgentsCacheTTL)
	conflict, err = checker.CheckReservation(filepath.Join(ownerDir, "src/main.go"))
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestSwarmClaimUnclaimComplete(t *testing.T) {
	cwd := t.TempDir()
	c := newTestCoordinator(t, cwd)
	_, err := c.Join(JoinParams{Name: "Worker", SpecPath: "PRD.md"})
	require.NoError(t, err)

	_, err = c.Router.Dispatch("swarm.claim", map[string]any{"spec": "PRD.md", "taskId": "task-1"})
	require.NoError(t, err)

	_, err = c.Router.Dispatch("swarm.claim", map[string]any{"spec": "PRD.md", "taskId": "task-1"})
	require.NoError(t, err) // same agent, same claim: idempotent

	_, err = c.Router.Dispatch("swarm.complete", map[string]any{"spec": "PRD.md", "taskId": "task-1", "notes": "done"})
	require.NoError(t, err)

	isComplete, err := c.Router.Dispatch("swarm.isComplete", map[string]any{"spec": "PRD.md", "taskId": "task-1"})
	require.NoError(t, err)
	assert.Equal(t, true, isComplete)
}

func TestTaskLifecycleThroughRouter(t *testing.T) {
	cwd := t.TempDir()
	c := newTestCoordinator(t, cwd)
	_, err := c.Join(JoinParams{Name: "Worker"})
	require.NoError(t, err)
	_, err = c.crewStore().CreatePlan("PRD.md")
	require.NoError(t, err)

	created, err := c.Router.Dispatch("task.create", map[string]any{"title": "do the thing", "spec": "body"})
	require.NoError(t, err)
	task := created.(store.Task)

	started, err := c.Router.Dispatch("task.start", map[string]any{"id": task.ID})
	require.NoError(t, err)
	assert.Equal(t, store.StatusInProgress, started.(store.Task).Status)

	done, err := c.Router.Dispatch("task.done", map[string]any{"id": task.ID, "summary": "finished"})
	require.NoError(t, err)
	assert.Equal(t, store.StatusDone, done.(store.Task).Status)
}

func TestConfigAutoRegisterPathIsExemptFromGate(t *testing.T) {
	c := newTestCoordinator(t, t.TempDir())
	result, err := c.Router.Dispatch("config.autoRegisterPath", map[string]any{"cwd": "/tmp/whatever"})
	require.NoError(t, err)
	assert.Equal(t, false, result) // autoRegister defaults to off
}
