package net

import (
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// ShipView is one ship as a spectator sees it.
type ShipView struct {
	ID       uint64  `msgpack:"id"`
	Kind     string  `msgpack:"kind"`
	Team     uint8   `msgpack:"team"`
	X        float64 `msgpack:"x"`
	Y        float64 `msgpack:"y"`
	Rotation float64 `msgpack:"rot"`
	HP       int32   `msgpack:"hp"`
	MaxHP    int32   `msgpack:"max_hp"`
	Radius   float64 `msgpack:"r"`
	Sprite   string  `msgpack:"sprite,omitempty"`
	Layer    int     `msgpack:"layer,omitempty"`
}

// Snapshot is the full world state for one tick.
type Snapshot struct {
	Tick   uint64     `msgpack:"tick"`
	Player uint64     `msgpack:"player"`
	Ships  []ShipView `msgpack:"ships"`
}

// Intent is what a pilot wants the player ship to do. It stays in effect
// until the pilot sends a new one.
type Intent struct {
	Turn     float64 `msgpack:"turn"`     // -1 (clockwise) .. 1 (counter-clockwise)
	Throttle float64 `msgpack:"throttle"` // 0 .. 1 of max engine level
	Fire     bool    `msgpack:"fire"`
}

// Clamped returns the intent with every field inside its range.
func (in Intent) Clamped() Intent {
	if math.IsNaN(in.Turn) {
		in.Turn = 0
	}
	if math.IsNaN(in.Throttle) {
		in.Throttle = 0
	}
	in.Turn = max(-1, min(1, in.Turn))
	in.Throttle = max(0, min(1, in.Throttle))
	return in
}

func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	b, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

func DecodeSnapshot(b []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

func EncodeIntent(in Intent) ([]byte, error) {
	return msgpack.Marshal(in)
}

func DecodeIntent(b []byte) (Intent, error) {
	var in Intent
	if err := msgpack.Unmarshal(b, &in); err != nil {
		return Intent{}, fmt.Errorf("decode intent: %w", err)
	}
	return in.Clamped(), nil
}
