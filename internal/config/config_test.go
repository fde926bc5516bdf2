package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	for _, k := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "DOUBAO_API_KEY", "ARK_API_KEY", "DASHSCOPE_API_KEY", "AGD_RENDER_FONT_SIZE"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearProviderEnv(t)
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openai", c.Model.Provider)
	assert.Equal(t, 4, c.Agent.MaxRounds)
	assert.True(t, c.Agent.CritiqueEnabled)
	assert.Equal(t, 0.5, c.Agent.SnapshotScale)
	assert.Equal(t, 3, c.Retry.Attempts)
	assert.Equal(t, 2*time.Second, c.Retry.Delay)
	assert.Equal(t, 16*time.Millisecond, c.Display.Tick)
	assert.Equal(t, 120*time.Millisecond, c.Display.PressDuration)
	assert.Equal(t, 24, c.Render.FontSize)
	assert.Equal(t, 8192, c.Render.MaxDimension)
	assert.Equal(t, "memory", c.Storage.Type)
	assert.Same(t, c, Get())
}

func TestLoadFileAndEnvFallback(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("DASHSCOPE_API_KEY", "sk-qwen")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  provider: qwen
agent:
  max_rounds: 2
  critique_enabled: false
display:
  backend: headless
  tick: 5ms
render:
  font_size: 18
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "qwen", c.Model.Provider)
	assert.Equal(t, "sk-qwen", c.APIKey())
	assert.Equal(t, 2, c.Agent.MaxRounds)
	assert.False(t, c.Agent.CritiqueEnabled)
	assert.Equal(t, 5*time.Millisecond, c.Display.Tick)
	assert.Equal(t, 18, c.Render.FontSize)
	assert.NoError(t, c.Validate())
}

func TestFontSizeEnvRange(t *testing.T) {
	clearProviderEnv(t)

	t.Setenv("AGD_RENDER_FONT_SIZE", "40")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 40, c.Render.FontSize)

	t.Setenv("AGD_RENDER_FONT_SIZE", "200")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 24, c.Render.FontSize)
}

func TestValidate(t *testing.T) {
	clearProviderEnv(t)
	c, err := Load("")
	require.NoError(t, err)

	err = c.Validate()
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	c.OpenAI.APIKey = "sk-test"
	assert.NoError(t, c.Validate())

	c.Model.Provider = "llama"
	assert.Error(t, c.Validate())

	c.Model.Provider = "openai"
	c.Display.Backend = "vnc"
	assert.Error(t, c.Validate())
}
