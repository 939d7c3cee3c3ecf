package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ko", cfg.Language)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.LLM.APIKeyEnv)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.True(t, cfg.Refiner.Enabled)
	assert.Equal(t, 10, cfg.Memory.Capacity)
	assert.Equal(t, 30*time.Minute, cfg.Memory.TabCacheTTL)
	assert.Equal(t, []int{9222, 9223}, cfg.Browser.DebugPorts)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "/tmp/deskvox.sock", cfg.IPC.Socket)
	assert.Empty(t, cfg.Bus.URL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileOverridesOnlyGivenKeys(t *testing.T) {
	path := writeConfig(t, `
language: en
llm:
  provider: Gemini
  proxy: 127.0.0.1:8888
  timeout: 15s
memory:
  tab_cache_ttl: 5m
browser:
  debug_ports: [9333]
aliases:
  editor: Zed
log:
  level: DEBUG
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, "GEMINI_API_KEY", cfg.LLM.APIKeyEnv)
	assert.Equal(t, "127.0.0.1:8888", cfg.LLM.Proxy)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10, cfg.Memory.Capacity)
	assert.Equal(t, 5*time.Minute, cfg.Memory.TabCacheTTL)
	assert.Equal(t, []int{9333}, cfg.Browser.DebugPorts)
	assert.Equal(t, map[string]string{"editor": "Zed"}, cfg.Aliases)
	assert.True(t, cfg.Refiner.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvPathAndOverrides(t *testing.T) {
	path := writeConfig(t, "language: en\n")
	t.Setenv("DESKVOX_CONFIG", path)
	t.Setenv("DESKVOX_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []string{
		"llm:\n  provider: claude\n",
		"memory:\n  capacity: 0\n",
		"memory:\n  tab_cache_ttl: -1m\n",
		"log:\n  level: loud\n",
	}
	for _, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.ErrorIs(t, err, ErrInvalid, body)
	}
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "llm: [unclosed"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestPath_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cfg.yaml"), Path("~/cfg.yaml"))
}
