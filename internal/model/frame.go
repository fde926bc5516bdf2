package model

import (
	"encoding/json"
	"time"
)

// Trigger names what started a refinement.
type Trigger string

const (
	TriggerBoot  Trigger = "boot"
	TriggerText  Trigger = "text"
	TriggerClick Trigger = "click"
)

// Frame is one accepted render with the refinement that produced it.
type Frame struct {
	ID         string          `json:"id"`
	Seq        uint64          `json:"seq"`
	Trigger    Trigger         `json:"trigger"`
	Stimulus   string          `json:"stimulus,omitempty"`
	State      string          `json:"state"`
	Rounds     int             `json:"rounds"`
	Rejections []string        `json:"rejections,omitempty"`
	Width      uint32          `json:"width"`
	Height     uint32          `json:"height"`
	Envelope   json.RawMessage `json:"envelope"`
	CreatedAt  time.Time       `json:"created_at"`
}

// FrameSummary is the listing form of a Frame.
type FrameSummary struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	Trigger   Trigger   `json:"trigger"`
	State     string    `json:"state"`
	Rounds    int       `json:"rounds"`
	CreatedAt time.Time `json:"created_at"`
}

func (f *Frame) Summary() FrameSummary {
	return FrameSummary{
		ID:        f.ID,
		Seq:       f.Seq,
		Trigger:   f.Trigger,
		State:     f.State,
		Rounds:    f.Rounds,
		CreatedAt: f.CreatedAt,
	}
}
