package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/wpilogviewer/pkg/config"
)

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	h := &harness{t: t, dir: dir, configPath: filepath.Join(dir, "nested", "config.yaml")}

	t.Run("init", func(t *testing.T) {
		stdout, _, err := h.run(nil, "config", "init", "--api-key")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Configuration created at "+h.configPath)
		assert.Contains(t, stdout, "API key: ")

		cfg, err := config.LoadConfig(h.configPath)
		require.NoError(t, err)
		assert.Len(t, cfg.Server.APIKey, 64)
	})

	t.Run("init refuses to overwrite", func(t *testing.T) {
		_, _, err := h.run(nil, "config", "init")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("init force", func(t *testing.T) {
		stdout, _, err := h.run(nil, "config", "init", "--force")
		require.NoError(t, err)
		assert.NotContains(t, stdout, "API key: ")

		cfg, err := config.LoadConfig(h.configPath)
		require.NoError(t, err)
		assert.Empty(t, cfg.Server.APIKey)
	})

	t.Run("show", func(t *testing.T) {
		stdout, _, err := h.run(nil, "--utf8", "strict", "config", "show")
		require.NoError(t, err)
		assert.Contains(t, stdout, "# "+h.configPath)
		assert.Contains(t, stdout, "utf8: strict")
		assert.Contains(t, stdout, "port: 8080")
	})
}
