package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agd-render/internal/display"
	"agd-render/internal/dsl"
	"agd-render/internal/hittest"
	"agd-render/internal/model"
	"agd-render/internal/raster"
	"agd-render/internal/storage"
	"agd-render/pkg/logger"
)

// Refiner turns a stimulus into an accepted outcome.
type Refiner interface {
	Refine(ctx context.Context, s Stimulus) (*Outcome, error)
}

type SessionOptions struct {
	Tick          time.Duration
	PressDuration time.Duration
	// Store and Hub are optional.
	Store storage.Storage
	Hub   *FrameHub
}

// Session owns the displayed frame, its hit index and the sequence
// bookkeeping. Only the goroutine calling Boot and Run touches it.
type Session struct {
	refiner Refiner
	open    display.Opener
	queue   <-chan string
	opts    SessionOptions

	backend  display.Backend
	spec     dsl.WindowSpec
	index    hittest.Index
	current  *dsl.RenderEnvelope
	shown    *raster.PixelBuffer
	lastSeq  uint64
	hasSeq   bool
	eventSeq uint64
	sleep    func(time.Duration)
}

func NewSession(refiner Refiner, open display.Opener, queue <-chan string, opts SessionOptions) *Session {
	if opts.Tick <= 0 {
		opts.Tick = 16 * time.Millisecond
	}
	return &Session{
		refiner: refiner,
		open:    open,
		queue:   queue,
		opts:    opts,
		sleep:   time.Sleep,
	}
}

// Boot runs the initial stimulus and opens the display with the first
// accepted window. Any failure here is fatal for the process.
func (s *Session) Boot(ctx context.Context) error {
	out, err := s.refiner.Refine(ctx, InitialStimulus())
	if err != nil {
		return fmt.Errorf("initial render: %w", err)
	}
	return s.accept(InitialStimulus(), out, nil)
}

// Run ticks until ctx is done or the display asks to close.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		s.Tick(ctx)
		if s.backend != nil && s.backend.ShouldClose() {
			logger.Info("Display closed, stopping session")
			return nil
		}
	}
}

// Tick handles every queued text stimulus, then at most one click.
func (s *Session) Tick(ctx context.Context) {
	for drained := false; !drained; {
		select {
		case text, ok := <-s.queue:
			if !ok {
				s.queue = nil
				drained = true
				break
			}
			s.interact(ctx, TextStimulus(text), nil)
		default:
			drained = true
		}
	}

	if s.backend == nil {
		return
	}
	click, ok := s.backend.PollClick()
	if !ok {
		return
	}
	target, hit := s.index.Hit(click.X, click.Y)
	if !hit {
		logger.Debugf("Click at (%d,%d) hit nothing", click.X, click.Y)
		return
	}

	s.eventSeq++
	stim, err := EventStimulus(dsl.NewClickEvent(s.eventSeq, target.ID, click.X, click.Y))
	if err != nil {
		logger.Errorf("Click on %s dropped: %v", target.ID, err)
		return
	}
	s.interact(ctx, stim, &target)
}

func (s *Session) interact(ctx context.Context, stim Stimulus, press *hittest.Target) {
	out, err := s.refiner.Refine(ctx, stim)
	if err != nil {
		logInteractionError(stim, err)
		return
	}
	if err := s.accept(stim, out, press); err != nil {
		logger.Errorf("Accepting frame failed: %v", err)
	}
}

func logInteractionError(stim Stimulus, err error) {
	log := logger.WithFields(logger.Fields{"trigger": stim.Trigger()})
	var parseErr *dsl.ParseError
	var validationErr *dsl.ValidationError
	var transportErr *model.TransportError
	switch {
	case errors.Is(err, model.ErrModelRefusal):
		log.Errorf("model refused: %v", err)
	case errors.As(err, &parseErr):
		log.Errorf("model response unparseable: %v", err)
	case errors.As(err, &validationErr):
		log.Errorf("model response invalid: %v", err)
	case errors.As(err, &transportErr):
		log.Errorf("model unreachable: %v", err)
	default:
		log.Errorf("interaction failed: %v", err)
	}
}

func (s *Session) accept(stim Stimulus, out *Outcome, press *hittest.Target) error {
	env := out.Envelope
	if s.hasSeq && env.Seq < s.lastSeq {
		logger.Warnf("Non-monotonic seq %d after %d, displaying anyway", env.Seq, s.lastSeq)
	}
	if !s.hasSeq || env.Seq > s.lastSeq {
		s.lastSeq = env.Seq
	}
	s.hasSeq = true

	s.current = env
	s.index.Rebuild(env.Commands)

	if s.backend == nil {
		backend, err := s.open(env.Window)
		if err != nil {
			return fmt.Errorf("open display: %w", err)
		}
		s.backend = backend
		s.spec = env.Window
	} else if env.Window != s.spec {
		logger.Debugf("Ignoring window spec %dx%d %q, display keeps %dx%d",
			env.Window.Width, env.Window.Height, env.Window.Title, s.spec.Width, s.spec.Height)
	}

	// The press is shown on the frame that was clicked, before it is replaced.
	if press != nil && s.shown != nil {
		if err := s.backend.Blit(raster.Emphasize(s.shown, press.Rect)); err != nil {
			return fmt.Errorf("blit press emphasis: %w", err)
		}
		if s.opts.PressDuration > 0 {
			s.sleep(s.opts.PressDuration)
		}
	}
	if err := s.backend.Blit(out.Buffer); err != nil {
		return fmt.Errorf("blit frame: %w", err)
	}
	s.shown = out.Buffer

	logger.WithFields(logger.Fields{
		"refinement": out.ID,
		"seq":        env.Seq,
		"state":      out.State.String(),
		"rounds":     out.Rounds,
	}).Info("frame accepted")

	s.record(stim, out)
	return nil
}

// record stores and publishes the frame; failures only get logged.
func (s *Session) record(stim Stimulus, out *Outcome) {
	if s.opts.Store == nil && s.opts.Hub == nil {
		return
	}

	body, err := json.Marshal(out.Envelope)
	if err != nil {
		logger.Errorf("Encode frame %s: %v", out.ID, err)
		return
	}
	frame := &model.Frame{
		ID:         out.ID,
		Seq:        out.Envelope.Seq,
		Trigger:    stim.Trigger(),
		Stimulus:   stim.Text,
		State:      out.State.String(),
		Rounds:     out.Rounds,
		Rejections: out.Rejections,
		Width:      out.Envelope.Window.Width,
		Height:     out.Envelope.Window.Height,
		Envelope:   body,
		CreatedAt:  time.Now(),
	}

	if s.opts.Store != nil {
		png, err := raster.EncodePNG(out.Buffer)
		if err != nil {
			logger.Errorf("Encode frame %s png: %v", out.ID, err)
		}
		if err := s.opts.Store.SaveFrame(frame, png); err != nil {
			logger.Errorf("Save frame %s: %v", out.ID, err)
		}
	}
	if s.opts.Hub != nil {
		s.opts.Hub.Publish(frame.Summary())
	}
}

// Current returns the displayed envelope, nil before Boot.
func (s *Session) Current() *dsl.RenderEnvelope { return s.current }

// LastSeq returns the highest accepted seq.
func (s *Session) LastSeq() uint64 { return s.lastSeq }

// Close releases the display.
func (s *Session) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
