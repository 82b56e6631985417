package supervisor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigHasSkillPresets(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 100, cfg.Skill["blitz"].MovetimeMS)
	assert.Equal(t, 14, cfg.Skill["strong"].Depth)
}

func TestLoadConfigOverlaysPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chessd.toml")
	contents := `
[server]
addr = ":9090"

[skill.blitz]
movetime_ms = 250
hash_mb = 16
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 250, cfg.Skill["blitz"].MovetimeMS)
	// Untouched presets and defaults survive the overlay.
	assert.Equal(t, 14, cfg.Skill["strong"].Depth)
	assert.Equal(t, "chessd-engine", cfg.Engine.Path)
}

func TestLoadConfigEnvOverridesTakePrecedence(t *testing.T) {
	t.Setenv("ENGINE_PATH", "/opt/engines/custom")
	t.Setenv("STOCKFISH_PATH", "/opt/engines/stockfish")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/opt/engines/custom", cfg.Engine.Path)
	assert.Equal(t, "/opt/engines/stockfish", cfg.Stockfish.Path)
}

func TestLoadConfigRejectsUnreadableFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
