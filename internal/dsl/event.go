package dsl

import "encoding/json"

// EventEnvelope reports a user interaction back to the model. Seq is a local
// counter independent of render seq.
type EventEnvelope struct {
	Version string     `json:"version"`
	Type    string     `json:"type"`
	Seq     uint64     `json:"seq"`
	Event   ClickEvent `json:"event"`
}

type ClickEvent struct {
	Kind     string `json:"kind"`
	TargetID string `json:"target_id"`
	X        int32  `json:"x"`
	Y        int32  `json:"y"`
}

func NewClickEvent(seq uint64, targetID string, x, y int) EventEnvelope {
	return EventEnvelope{
		Version: Version,
		Type:    TypeEvent,
		Seq:     seq,
		Event: ClickEvent{
			Kind:     KindClick,
			TargetID: targetID,
			X:        int32(x),
			Y:        int32(y),
		},
	}
}

// JSON renders the envelope as the compact text sent to the model.
func (e EventEnvelope) JSON() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
