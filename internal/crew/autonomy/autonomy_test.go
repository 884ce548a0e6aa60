package autonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartInitializesNextWave(t *testing.T) {
	s := New(t.TempDir())
	st, err := s.Start("/proj")
	require.NoError(t, err)
	assert.True(t, st.Active)
	assert.Equal(t, 1, st.NextWave)
}

func TestStartSameCwdResumes(t *testing.T) {
	s := New(t.TempDir())
	first, err := s.Start("/proj")
	require.NoError(t, err)
	_, err = s.RecordWave(WaveRecord{Wave: 1, Succeeded: 2}, []string{"task-1"})
	require.NoError(t, err)

	resumed, err := s.Start("/proj")
	require.NoError(t, err)
	assert.Equal(t, 2, resumed.NextWave)
	_ = first
}

func TestStartDifferentCwdResets(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Start("/proj-a")
	require.NoError(t, err)
	_, err = s.RecordWave(WaveRecord{Wave: 1}, nil)
	require.NoError(t, err)

	st, err := s.Start("/proj-b")
	require.NoError(t, err)
	assert.Equal(t, "/proj-b", st.Cwd)
	assert.Equal(t, 1, st.NextWave)
	assert.Empty(t, st.History)
}

func TestRecordWaveIncrementsAttempts(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Start("/proj")
	require.NoError(t, err)

	_, err = s.RecordWave(WaveRecord{Wave: 1}, []string{"task-1", "task-2"})
	require.NoError(t, err)
	_, err = s.RecordWave(WaveRecord{Wave: 2}, []string{"task-1"})
	require.NoError(t, err)

	assert.Equal(t, 2, s.AttemptCount("task-1"))
	assert.Equal(t, 1, s.AttemptCount("task-2"))
}

func TestStopRecordsReason(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Start("/proj")
	require.NoError(t, err)

	st, err := s.Stop(StopCompleted)
	require.NoError(t, err)
	assert.False(t, st.Active)
	assert.Equal(t, StopCompleted, st.StopReason)
	assert.NotNil(t, st.StoppedAt)
}
