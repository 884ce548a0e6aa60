package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromMergesOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"scopeToFolder": true, "crew": {"work": {"maxWaves": 5}}}`), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.True(t, cfg.ScopeToFolder)
	assert.Equal(t, 5, cfg.Crew.Work.MaxWaves)
	// Unspecified nested fields keep the default.
	assert.Equal(t, 3, cfg.Crew.Concurrency.Scouts)
}

func TestMatchesAutoRegisterGlob(t *testing.T) {
	cfg := Default()
	cfg.AutoRegister = true
	cfg.AutoRegisterPaths = []string{"/code/*/backend"}
	assert.True(t, cfg.MatchesAutoRegister("/code/foo/backend"))
	assert.False(t, cfg.MatchesAutoRegister("/code/foo/frontend"))
}

func TestMatchesAutoRegisterDisabled(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.MatchesAutoRegister("/anywhere"))
}
