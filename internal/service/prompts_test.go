package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agd-render/internal/config"
	"agd-render/internal/dsl"
	"agd-render/internal/model"
)

func TestLoadSystemPrompt(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "system.txt")
	require.NoError(t, os.WriteFile(file, []byte("from file"), 0o644))

	assert.Equal(t, "inline", LoadSystemPrompt(config.AgentConfig{SystemPrompt: " inline ", SystemPromptFile: file}))
	assert.Equal(t, "from file", LoadSystemPrompt(config.AgentConfig{SystemPromptFile: file}))
	assert.Equal(t, defaultSystemPrompt, LoadSystemPrompt(config.AgentConfig{SystemPromptFile: filepath.Join(dir, "missing.txt")}))

	blank := filepath.Join(dir, "blank.txt")
	require.NoError(t, os.WriteFile(blank, []byte("\n  \n"), 0o644))
	assert.Equal(t, defaultSystemPrompt, LoadSystemPrompt(config.AgentConfig{SystemPromptFile: blank}))
}

func TestLoadCritiquePrompt(t *testing.T) {
	assert.Equal(t, defaultCritiquePrompt, LoadCritiquePrompt(config.AgentConfig{}))
	assert.Equal(t, "be strict", LoadCritiquePrompt(config.AgentConfig{CritiquePrompt: "be strict"}))
}

func TestStimulusPrompts(t *testing.T) {
	assert.Equal(t, "Return the initial render JSON.", InitialStimulus().Prompt())
	assert.Equal(t, "User text:\nhello\n\nRespond with a simple UI answer (do not echo the user text).",
		TextStimulus("hello").Prompt())

	ev, err := EventStimulus(dsl.NewClickEvent(3, "btn1", 12, 34))
	require.NoError(t, err)
	assert.Equal(t, StimulusEvent, ev.Kind)
	assert.Equal(t, "btn1", ev.Target)
	assert.Contains(t, ev.Text, `"target_id":"btn1"`)
	assert.Equal(t, "Event JSON:\n"+ev.Text+"\n\nReturn the next render JSON.", ev.Prompt())
}

func TestStimulusTrigger(t *testing.T) {
	assert.Equal(t, model.TriggerBoot, InitialStimulus().Trigger())
	assert.Equal(t, model.TriggerText, TextStimulus("x").Trigger())
	assert.Equal(t, model.TriggerClick, Stimulus{Kind: StimulusEvent}.Trigger())
}
