package service

import (
	"bufio"
	"io"
	"strings"

	"agd-render/pkg/logger"
)

// QueueCapacity bounds pending text stimuli.
const QueueCapacity = 64

func NewStimulusQueue() chan string {
	return make(chan string, QueueCapacity)
}

// Offer enqueues text without blocking and reports whether it fit.
func Offer(queue chan<- string, text string) bool {
	select {
	case queue <- text:
		return true
	default:
		return false
	}
}

// StartLineListener forwards each non-blank line of r to queue, blocking when
// the queue is full. The returned channel closes at EOF or on a read error.
func StartLineListener(r io.Reader, queue chan<- string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			queue <- line
		}
		if err := scanner.Err(); err != nil {
			logger.Errorf("Stimulus listener stopped: %v", err)
			return
		}
		logger.Debug("Stimulus listener reached EOF")
	}()
	return done
}
