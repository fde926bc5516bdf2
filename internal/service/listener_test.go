package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agd-render/internal/model"
)

func TestLineListener(t *testing.T) {
	queue := NewStimulusQueue()
	done := StartLineListener(strings.NewReader("hello\n\n   \n  spaced out  \r\nlast"), queue)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop at EOF")
	}
	close(queue)

	var got []string
	for line := range queue {
		got = append(got, line)
	}
	assert.Equal(t, []string{"hello", "spaced out", "last"}, got)
}

func TestOffer(t *testing.T) {
	queue := make(chan string, 1)
	assert.True(t, Offer(queue, "a"))
	assert.False(t, Offer(queue, "b"))
	assert.Equal(t, "a", <-queue)
}

func TestFrameHub(t *testing.T) {
	hub := NewFrameHub()
	a, cancelA := hub.Subscribe()
	b, cancelB := hub.Subscribe()
	assert.Equal(t, 2, hub.Subscribers())

	hub.Publish(model.FrameSummary{Seq: 1})
	assert.Equal(t, uint64(1), (<-a).Seq)
	assert.Equal(t, uint64(1), (<-b).Seq)

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, hub.Subscribers())

	// a full subscriber drops frames instead of blocking
	for i := 0; i < 20; i++ {
		hub.Publish(model.FrameSummary{Seq: uint64(i)})
	}
	require.Len(t, b, cap(b))
	cancelB()
	assert.Zero(t, hub.Subscribers())
}
