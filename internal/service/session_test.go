package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agd-render/internal/display"
	"agd-render/internal/dsl"
	"agd-render/internal/geom"
	"agd-render/internal/glyph"
	"agd-render/internal/model"
	"agd-render/internal/raster"
	"agd-render/internal/storage"
)

// recordingBackend keeps every blitted frame.
type recordingBackend struct {
	spec   dsl.WindowSpec
	blits  []*raster.PixelBuffer
	clicks []display.Click
	closed bool
}

func (b *recordingBackend) Blit(buf *raster.PixelBuffer) error {
	b.blits = append(b.blits, buf.Clone())
	return nil
}

func (b *recordingBackend) PollClick() (display.Click, bool) {
	if len(b.clicks) == 0 {
		return display.Click{}, false
	}
	c := b.clicks[0]
	b.clicks = b.clicks[1:]
	return c, true
}

func (b *recordingBackend) ShouldClose() bool { return b.closed }
func (b *recordingBackend) Close() error      { b.closed = true; return nil }

// fakeRefiner renders whatever envelope next returns for each stimulus.
type fakeRefiner struct {
	t       *testing.T
	next    func(s Stimulus) (string, error)
	stimuli []Stimulus
}

func (f *fakeRefiner) Refine(_ context.Context, s Stimulus) (*Outcome, error) {
	f.stimuli = append(f.stimuli, s)
	raw, err := f.next(s)
	if err != nil {
		return nil, err
	}
	env, err := dsl.ParseRender(raw)
	require.NoError(f.t, err)
	require.NoError(f.t, dsl.Validate(env))
	buf, err := raster.NewRenderer(glyph.Fonts{}, nil, raster.Options{}).Render(env)
	require.NoError(f.t, err)
	return &Outcome{ID: uuid.NewString(), State: StateFinalized, Envelope: env, Buffer: buf}, nil
}

type sessionFixture struct {
	session *Session
	refiner *fakeRefiner
	queue   chan string
	backend *recordingBackend
	opened  int
	slept   []time.Duration
}

func newSessionFixture(t *testing.T, opts SessionOptions) *sessionFixture {
	f := &sessionFixture{queue: NewStimulusQueue()}
	seq := 0
	f.refiner = &fakeRefiner{t: t, next: func(Stimulus) (string, error) {
		seq++
		return demoEnvelope(seq, "#ff0000"), nil
	}}
	open := func(spec dsl.WindowSpec) (display.Backend, error) {
		f.opened++
		f.backend = &recordingBackend{spec: spec}
		return f.backend, nil
	}
	f.session = NewSession(f.refiner, open, f.queue, opts)
	f.session.sleep = func(d time.Duration) { f.slept = append(f.slept, d) }
	return f
}

func TestBootOpensDisplay(t *testing.T) {
	f := newSessionFixture(t, SessionOptions{})
	require.NoError(t, f.session.Boot(context.Background()))

	assert.Equal(t, 1, f.opened)
	assert.Equal(t, dsl.WindowSpec{Width: 200, Height: 100, Title: "Demo"}, f.backend.spec)
	assert.Len(t, f.backend.blits, 1)
	assert.Equal(t, uint64(1), f.session.LastSeq())
	require.Len(t, f.refiner.stimuli, 1)
	assert.Equal(t, StimulusInitial, f.refiner.stimuli[0].Kind)
}

func TestBootFailure(t *testing.T) {
	f := newSessionFixture(t, SessionOptions{})
	f.refiner.next = func(Stimulus) (string, error) { return "", &model.RefusalError{} }

	err := f.session.Boot(context.Background())
	assert.ErrorIs(t, err, model.ErrModelRefusal)
	assert.Zero(t, f.opened)
	assert.Nil(t, f.session.Current())
}

func TestTickDrainsTextBeforeClicks(t *testing.T) {
	f := newSessionFixture(t, SessionOptions{})
	require.NoError(t, f.session.Boot(context.Background()))

	f.queue <- "first"
	f.queue <- "second"
	f.backend.clicks = append(f.backend.clicks, display.Click{X: 20, Y: 15})
	f.session.Tick(context.Background())

	require.Len(t, f.refiner.stimuli, 4)
	assert.Equal(t, TextStimulus("first"), f.refiner.stimuli[1])
	assert.Equal(t, TextStimulus("second"), f.refiner.stimuli[2])
	assert.Equal(t, StimulusEvent, f.refiner.stimuli[3].Kind)
	assert.Equal(t, uint64(4), f.session.LastSeq())
}

func TestClickSendsEventAndEmphasizes(t *testing.T) {
	f := newSessionFixture(t, SessionOptions{PressDuration: 120 * time.Millisecond})
	require.NoError(t, f.session.Boot(context.Background()))

	f.refiner.next = func(Stimulus) (string, error) { return demoEnvelope(2, "#0000ff"), nil }
	f.backend.clicks = append(f.backend.clicks, display.Click{X: 20, Y: 15})
	f.session.Tick(context.Background())

	require.Len(t, f.refiner.stimuli, 2)
	ev := f.refiner.stimuli[1]
	assert.Equal(t, "btn1", ev.Target)
	assert.Contains(t, ev.Text, `"seq":1`)
	assert.Contains(t, ev.Text, `"x":20`)
	assert.Contains(t, ev.Text, `"kind":"click"`)

	// boot frame, emphasized frame, settled frame
	require.Len(t, f.backend.blits, 3)
	assert.Equal(t, raster.EmphasisColor, f.backend.blits[1].At(10, 10))
	assert.Equal(t, geom.RGB{R: 0xff}, f.backend.blits[1].At(30, 20), "the clicked frame is the one pressed")
	assert.Equal(t, geom.RGB{B: 0xff}, f.backend.blits[2].At(10, 10))
	assert.Equal(t, geom.RGB{B: 0xff}, f.backend.blits[2].At(30, 20))
	assert.Equal(t, []time.Duration{120 * time.Millisecond}, f.slept)

	// event seq is independent of render seq
	f.backend.clicks = append(f.backend.clicks, display.Click{X: 11, Y: 11})
	f.session.Tick(context.Background())
	assert.Contains(t, f.refiner.stimuli[2].Text, `"seq":2`)
}

func TestClickMissIsIgnored(t *testing.T) {
	f := newSessionFixture(t, SessionOptions{})
	require.NoError(t, f.session.Boot(context.Background()))

	f.backend.clicks = append(f.backend.clicks, display.Click{X: 150, Y: 80})
	f.session.Tick(context.Background())

	assert.Len(t, f.refiner.stimuli, 1)
	assert.Len(t, f.backend.blits, 1)
}

func TestOneClickPerTick(t *testing.T) {
	f := newSessionFixture(t, SessionOptions{})
	require.NoError(t, f.session.Boot(context.Background()))

	f.backend.clicks = append(f.backend.clicks, display.Click{X: 20, Y: 15}, display.Click{X: 21, Y: 16})
	f.session.Tick(context.Background())
	assert.Len(t, f.refiner.stimuli, 2)
	f.session.Tick(context.Background())
	assert.Len(t, f.refiner.stimuli, 3)
}

func TestFailedInteractionKeepsFrame(t *testing.T) {
	f := newSessionFixture(t, SessionOptions{})
	require.NoError(t, f.session.Boot(context.Background()))
	before := f.session.Current()

	f.refiner.next = func(Stimulus) (string, error) {
		return "", &model.TransportError{Attempts: 3, Err: errors.New("reset")}
	}
	f.queue <- "hello"
	f.session.Tick(context.Background())

	assert.Same(t, before, f.session.Current())
	assert.Len(t, f.backend.blits, 1)
}

func TestNonMonotonicSeqStillDisplayed(t *testing.T) {
	f := newSessionFixture(t, SessionOptions{})
	seqs := []int{5, 2}
	f.refiner.next = func(Stimulus) (string, error) {
		s := seqs[0]
		seqs = seqs[1:]
		return demoEnvelope(s, "#00ff00"), nil
	}
	require.NoError(t, f.session.Boot(context.Background()))

	f.queue <- "again"
	f.session.Tick(context.Background())

	assert.Equal(t, uint64(2), f.session.Current().Seq)
	assert.Equal(t, uint64(5), f.session.LastSeq())
	assert.Len(t, f.backend.blits, 2)
}

func TestLaterWindowSpecDoesNotReopen(t *testing.T) {
	f := newSessionFixture(t, SessionOptions{})
	require.NoError(t, f.session.Boot(context.Background()))

	f.refiner.next = func(Stimulus) (string, error) {
		return strings.Replace(demoEnvelope(2, "#ff0000"), `"width":200`, `"width":300`, 1), nil
	}
	f.queue <- "bigger"
	f.session.Tick(context.Background())

	assert.Equal(t, 1, f.opened)
	assert.Equal(t, uint32(200), f.backend.spec.Width)
	assert.Equal(t, uint32(300), f.session.Current().Window.Width)
}

func TestAcceptedFramesAreStoredAndPublished(t *testing.T) {
	store := storage.NewMemoryStorage(10)
	hub := NewFrameHub()
	sub, cancel := hub.Subscribe()
	defer cancel()

	f := newSessionFixture(t, SessionOptions{Store: store, Hub: hub})
	require.NoError(t, f.session.Boot(context.Background()))
	f.queue <- "hi"
	f.session.Tick(context.Background())

	frames, err := store.ListFrames(0)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, model.TriggerText, frames[0].Trigger)
	assert.Equal(t, model.TriggerBoot, frames[1].Trigger)

	latest, err := store.LatestFrame()
	require.NoError(t, err)
	assert.Equal(t, "hi", latest.Stimulus)
	assert.Equal(t, "finalized", latest.State)
	assert.Equal(t, uint32(200), latest.Width)
	assert.Contains(t, string(latest.Envelope), `"AGD/0.2"`)

	png, err := store.GetFramePNG(latest.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	first := <-sub
	second := <-sub
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
}

func TestRunStopsOnCancelAndClose(t *testing.T) {
	f := newSessionFixture(t, SessionOptions{Tick: time.Millisecond})
	require.NoError(t, f.session.Boot(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, f.session.Run(ctx))

	f.backend.closed = true
	done := make(chan error, 1)
	go func() { done <- f.session.Run(context.Background()) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after the display closed")
	}
	assert.NoError(t, f.session.Close())
}
