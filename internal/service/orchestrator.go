package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"agd-render/internal/dsl"
	"agd-render/internal/raster"
	"agd-render/pkg/logger"
)

// State is a refinement state.
type State int

const (
	StateDrafting State = iota
	StateRendering
	StateAwaitingCritique
	StateRevising
	StateFinalized
	StateExhausted
)

var stateNames = [...]string{"drafting", "rendering", "awaiting_critique", "revising", "finalized", "exhausted"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DefaultMaxRounds bounds critique calls per refinement.
const DefaultMaxRounds = 4

// Renderer rasterizes validated envelopes.
type Renderer interface {
	Render(env *dsl.RenderEnvelope) (*raster.PixelBuffer, error)
}

type OrchestratorOptions struct {
	MaxRounds       int
	CritiqueEnabled bool
	SnapshotScale   float64
	SnapshotQuality int
}

// Outcome is an accepted frame and how it was reached.
type Outcome struct {
	ID         string
	State      State
	Envelope   *dsl.RenderEnvelope
	Buffer     *raster.PixelBuffer
	Rounds     int
	Rejections []string
	// Trace lists the states visited, in order.
	Trace []State
	// Text is the model output the accepted envelope was parsed from.
	Text string
}

// Orchestrator runs the bounded generate, render, critique loop.
type Orchestrator struct {
	models   ModelService
	renderer Renderer
	opts     OrchestratorOptions
}

func NewOrchestrator(models ModelService, renderer Renderer, opts OrchestratorOptions) *Orchestrator {
	if opts.MaxRounds < 1 {
		opts.MaxRounds = DefaultMaxRounds
	}
	if opts.SnapshotScale <= 0 || opts.SnapshotScale > 1 {
		opts.SnapshotScale = 0.5
	}
	if opts.SnapshotQuality <= 0 || opts.SnapshotQuality > 100 {
		opts.SnapshotQuality = 70
	}
	return &Orchestrator{models: models, renderer: renderer, opts: opts}
}

// candidate is a parsed, validated and rasterized envelope with its source text.
type candidate struct {
	raw string
	env *dsl.RenderEnvelope
	buf *raster.PixelBuffer
}

func (o *Orchestrator) prepare(raw string) (*candidate, error) {
	env, err := dsl.ParseRender(raw)
	if err != nil {
		return nil, err
	}
	if err := dsl.Validate(env); err != nil {
		return nil, err
	}
	buf, err := o.renderer.Render(env)
	if err != nil {
		return nil, err
	}
	return &candidate{raw: raw, env: env, buf: buf}, nil
}

// Refine drives one stimulus to an accepted frame. Parse, validation, render,
// refusal and transport errors abort the refinement and are returned as is.
func (o *Orchestrator) Refine(ctx context.Context, s Stimulus) (*Outcome, error) {
	out := &Outcome{ID: uuid.NewString()}
	log := logger.WithFields(logger.Fields{
		"refinement": out.ID,
		"trigger":    s.Trigger(),
	})
	enter := func(st State) {
		out.State = st
		out.Trace = append(out.Trace, st)
		log.WithField("round", out.Rounds).Debugf("state %s", st)
	}

	enter(StateDrafting)
	raw, err := o.models.RequestCandidate(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("request candidate: %w", err)
	}

	enter(StateRendering)
	cur, err := o.prepare(raw)
	if err != nil {
		return nil, err
	}
	if !o.opts.CritiqueEnabled {
		return o.accept(out, StateFinalized, cur, enter), nil
	}

	for {
		enter(StateAwaitingCritique)
		snapshot, err := raster.Snapshot(cur.buf, o.opts.SnapshotScale, o.opts.SnapshotQuality)
		if err != nil {
			return nil, err
		}
		reply, err := o.models.RequestCritique(ctx, s, snapshot, cur.raw)
		if err != nil {
			return nil, fmt.Errorf("request critique: %w", err)
		}
		out.Rounds++

		critique, err := dsl.ParseCritique(reply)
		if err != nil {
			return nil, err
		}
		revised := string(critique.Render)

		if critique.IsFinal {
			next, err := o.prepare(revised)
			if err != nil {
				return nil, err
			}
			return o.accept(out, StateFinalized, next, enter), nil
		}

		reason := critique.Reason()
		out.Rejections = append(out.Rejections, reason)
		log.WithField("round", out.Rounds).Infof("candidate rejected: %s", reason)

		if out.Rounds >= o.opts.MaxRounds {
			// the final revision is accepted only if it renders
			next, err := o.prepare(revised)
			if err != nil {
				log.Warnf("last revision unusable, keeping previous candidate: %v", err)
				next = cur
			}
			return o.accept(out, StateExhausted, next, enter), nil
		}

		enter(StateRevising)
		enter(StateRendering)
		next, err := o.prepare(revised)
		if err != nil {
			return nil, err
		}
		cur = next
	}
}

func (o *Orchestrator) accept(out *Outcome, st State, c *candidate, enter func(State)) *Outcome {
	enter(st)
	out.Envelope = c.env
	out.Buffer = c.buf
	out.Text = c.raw
	return out
}
