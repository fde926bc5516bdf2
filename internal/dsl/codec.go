package dsl

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var commandFactories = map[Kind]func() Command{
	KindClear:     func() Command { return &Clear{} },
	KindRect:      func() Command { return &Rect{} },
	KindText:      func() Command { return &Text{} },
	KindLine:      func() Command { return &Line{} },
	KindCircle:    func() Command { return &Circle{} },
	KindEllipse:   func() Command { return &Ellipse{} },
	KindRoundRect: func() Command { return &RoundRect{} },
	KindArc:       func() Command { return &Arc{} },
	KindPolyline:  func() Command { return &Polyline{} },
	KindPolygon:   func() Command { return &Polygon{} },
	KindImage:     func() Command { return &Image{} },
	KindPath:      func() Command { return &Path{} },
}

type envelopeWire struct {
	Version  string            `json:"version"`
	Type     string            `json:"type"`
	Seq      uint64            `json:"seq"`
	Window   WindowSpec        `json:"window"`
	Commands []json.RawMessage `json:"commands"`
}

// MarshalJSON writes commands with their "cmd" tag first.
func (e RenderEnvelope) MarshalJSON() ([]byte, error) {
	w := envelopeWire{
		Version:  e.Version,
		Type:     e.Type,
		Seq:      e.Seq,
		Window:   e.Window,
		Commands: make([]json.RawMessage, 0, len(e.Commands)),
	}
	for i, c := range e.Commands {
		raw, err := EncodeCommand(c)
		if err != nil {
			return nil, fmt.Errorf("commands[%d]: %w", i, err)
		}
		w.Commands = append(w.Commands, raw)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes commands by their "cmd" tag.
func (e *RenderEnvelope) UnmarshalJSON(data []byte) error {
	var w envelopeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	cmds := make([]Command, 0, len(w.Commands))
	for i, raw := range w.Commands {
		c, err := DecodeCommand(raw)
		if err != nil {
			return fmt.Errorf("commands[%d]: %w", i, err)
		}
		cmds = append(cmds, c)
	}
	*e = RenderEnvelope{
		Version:  w.Version,
		Type:     w.Type,
		Seq:      w.Seq,
		Window:   w.Window,
		Commands: cmds,
	}
	return nil
}

// EncodeCommand serializes c as a JSON object tagged with its kind.
func EncodeCommand(c Command) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("nil command")
	}
	body, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(string(c.Kind()))

	var buf bytes.Buffer
	buf.WriteString(`{"cmd":`)
	buf.Write(tag)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// DecodeCommand parses one tagged command object.
func DecodeCommand(raw json.RawMessage) (Command, error) {
	var head struct {
		Cmd string `json:"cmd"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	factory, ok := commandFactories[Kind(head.Cmd)]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCommand, head.Cmd)
	}
	c := factory()
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("%s: %w", head.Cmd, err)
	}
	return c, nil
}
