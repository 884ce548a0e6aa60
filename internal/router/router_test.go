package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pi-messenger/messenger/internal/meshapi"
)

func TestDispatchGatesUnregisteredCallers(t *testing.T) {
	joined := false
	r := New(func() bool { return joined })
	r.Exempt("join")
	r.Register("join", func(op string, params map[string]any) (any, error) {
		joined = true
		return "ok", nil
	})
	r.Register("status", func(op string, params map[string]any) (any, error) {
		return "status-ok", nil
	})

	_, err := r.Dispatch("status", nil)
	require.Error(t, err)
	assert.True(t, meshapi.As(err, meshapi.KindNotRegistered))

	_, err = r.Dispatch("join", nil)
	require.NoError(t, err)

	result, err := r.Dispatch("status", nil)
	require.NoError(t, err)
	assert.Equal(t, "status-ok", result)
}

func TestDispatchSplitsActionAtFirstDot(t *testing.T) {
	r := New(func() bool { return true })
	var gotOp string
	r.Register("task", func(op string, params map[string]any) (any, error) {
		gotOp = op
		return nil, nil
	})

	_, err := r.Dispatch("task.done", map[string]any{"id": "task-1"})
	require.NoError(t, err)
	assert.Equal(t, "done", gotOp)
}

func TestDispatchUnknownGroup(t *testing.T) {
	r := New(func() bool { return true })
	_, err := r.Dispatch("nonsense", nil)
	require.Error(t, err)
	assert.True(t, meshapi.As(err, meshapi.KindUnknownAction))
}

func TestDispatchExemptsDottedAction(t *testing.T) {
	r := New(func() bool { return false })
	r.Exempt("config.autoRegisterPath")
	r.Register("config", func(op string, params map[string]any) (any, error) {
		return op, nil
	})

	result, err := r.Dispatch("config.autoRegisterPath", nil)
	require.NoError(t, err)
	assert.Equal(t, "autoRegisterPath", result)

	_, err = r.Dispatch("config.other", nil)
	require.Error(t, err)
}
