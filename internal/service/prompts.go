package service

import (
	"fmt"
	"os"
	"strings"

	"agd-render/internal/config"
	"agd-render/internal/dsl"
	"agd-render/internal/model"
	"agd-render/pkg/logger"
)

const defaultSystemPrompt = `You are a renderer that outputs JSON only.
Use AGD/0.2 render envelopes exactly.
Output must be a single JSON object (no markdown, no commentary).
Rules: version="AGD/0.2", type="render", include seq (u64),
include window {width,height,title}, and a commands array.
Commands allowed: clear, rect, text, line, circle, ellipse, round_rect, arc,
polyline, polygon, image, path.
Colors are "#RRGGBB" strings. Points are {"x":int,"y":int}.
Every render must include clear.
Clickable rects must have a unique id; ids are unique across all commands.
Use explicit coordinates, no layout inference.
When user text is provided, respond with a simple UI answer; do not echo the user text unless necessary.`

const defaultCritiquePrompt = `You are reviewing a rendered UI frame.
The attached image is a downscaled snapshot of the candidate render below.
Judge whether it answers the stimulus legibly: nothing clipped, no overlapping text,
readable contrast, clickable areas clearly visible.
Reply with a single JSON object:
{"is_final": bool, "rejection_reason": string or null, "render": <AGD/0.2 render envelope>}
When is_final is false, put a corrected envelope in render. When it is true, repeat the accepted envelope.`

const initialPrompt = "Return the initial render JSON."

// LoadSystemPrompt resolves the system prompt: inline config, then the
// configured file, then the built-in prompt.
func LoadSystemPrompt(cfg config.AgentConfig) string {
	if s := strings.TrimSpace(cfg.SystemPrompt); s != "" {
		return s
	}
	if cfg.SystemPromptFile != "" {
		data, err := os.ReadFile(cfg.SystemPromptFile)
		if err == nil && len(strings.TrimSpace(string(data))) > 0 {
			return string(data)
		}
		if err != nil {
			logger.Debugf("System prompt file %s not used: %v", cfg.SystemPromptFile, err)
		}
	}
	return defaultSystemPrompt
}

// LoadCritiquePrompt returns the configured critique instructions or the built-in ones.
func LoadCritiquePrompt(cfg config.AgentConfig) string {
	if s := strings.TrimSpace(cfg.CritiquePrompt); s != "" {
		return s
	}
	return defaultCritiquePrompt
}

// StimulusKind distinguishes what triggered a refinement.
type StimulusKind int

const (
	StimulusInitial StimulusKind = iota
	StimulusText
	StimulusEvent
)

// Stimulus is one input to the refinement loop.
type Stimulus struct {
	Kind StimulusKind
	// Text is the user text or the event envelope JSON.
	Text string
	// Target is the clicked id for event stimuli.
	Target string
}

func InitialStimulus() Stimulus { return Stimulus{Kind: StimulusInitial} }

func TextStimulus(text string) Stimulus { return Stimulus{Kind: StimulusText, Text: text} }

// EventStimulus serializes a click event envelope as the stimulus text.
func EventStimulus(ev dsl.EventEnvelope) (Stimulus, error) {
	body, err := ev.JSON()
	if err != nil {
		return Stimulus{}, fmt.Errorf("encode event: %w", err)
	}
	return Stimulus{Kind: StimulusEvent, Text: body, Target: ev.Event.TargetID}, nil
}

// Prompt is the user turn sent to the model for this stimulus.
func (s Stimulus) Prompt() string {
	switch s.Kind {
	case StimulusEvent:
		return "Event JSON:\n" + s.Text + "\n\nReturn the next render JSON."
	case StimulusText:
		return "User text:\n" + s.Text + "\n\nRespond with a simple UI answer (do not echo the user text)."
	default:
		return initialPrompt
	}
}

func (s Stimulus) Trigger() model.Trigger {
	switch s.Kind {
	case StimulusEvent:
		return model.TriggerClick
	case StimulusText:
		return model.TriggerText
	default:
		return model.TriggerBoot
	}
}

func critiqueText(instructions string, s Stimulus, candidate string) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nStimulus:\n")
	b.WriteString(s.Prompt())
	b.WriteString("\n\nCandidate render JSON:\n")
	b.WriteString(candidate)
	return b.String()
}
