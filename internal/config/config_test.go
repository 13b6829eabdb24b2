package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	assert.NoError(t, err, "config file should have been created")
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: dark\nplot:\n  points: 50\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, 50, cfg.Plot.Points)
	assert.Equal(t, -10.0, cfg.Plot.XMin)
	assert.Equal(t, 4, cfg.Batch.Workers)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown theme":   "theme: neon\n",
		"reversed range":  "plot:\n  x_min: 5\n  x_max: -5\n",
		"too few points":  "plot:\n  points: 1\n",
		"zero workers":    "batch:\n  workers: 0\n",
		"bad level":       "log:\n  level: loud\n",
		"bad address":     "server:\n  addr: nowhere\n",
		"history w/o dir": "history:\n  enabled: true\n  dir: \"\"\n",
		"malformed yaml":  "theme: [\n",
		"reversed search": "solve:\n  search_min: 1\n  search_max: 0\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Theme = "light"
	cfg.Solve.SearchMin = -5
	cfg.Solve.SearchMax = 5

	require.NoError(t, Save(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSave_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Theme = "solarized"

	err := Save(path, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Theme")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".umlcalc"), ExpandPath("~/.umlcalc"))
	assert.Equal(t, "/tmp/x", ExpandPath("/tmp/x"))
}
