package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pi-messenger/messenger/internal/registry"
)

func regAt(lastActivity time.Time) registry.Registration {
	return registry.Registration{Activity: registry.Activity{LastActivityAt: lastActivity}}
}

func TestDerive(t *testing.T) {
	now := time.Now()

	assert.Equal(t, Active, Derive(regAt(now.Add(-10*time.Second)), now, 0, false))
	assert.Equal(t, Idle, Derive(regAt(now.Add(-2*time.Minute)), now, 0, false))
	assert.Equal(t, Idle, Derive(regAt(now.Add(-6*time.Minute)), now, 0, true))
	assert.Equal(t, Away, Derive(regAt(now.Add(-6*time.Minute)), now, 0, false))
	assert.Equal(t, Stuck, Derive(regAt(now.Add(-20*time.Minute)), now, 0, true))
	assert.Equal(t, Away, Derive(regAt(now.Add(-20*time.Minute)), now, 0, false))
}

func TestDeriveCustomThreshold(t *testing.T) {
	now := time.Now()
	assert.Equal(t, Stuck, Derive(regAt(now.Add(-10*time.Minute)), now, time.Minute, true))
}

func TestStuckTrackerDebounces(t *testing.T) {
	tr := NewStuckTracker()
	assert.True(t, tr.Observe("Swift", Stuck))
	assert.False(t, tr.Observe("Swift", Stuck))
	assert.False(t, tr.Observe("Swift", Active))
	assert.True(t, tr.Observe("Swift", Stuck))
}
