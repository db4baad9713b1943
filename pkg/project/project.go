// Package project captures and restores engine state. The engine owns
// no file I/O; callers serialize snapshots with encoding/json.
package project

import (
	"github.com/grainloom/grainloom/pkg/engine"
	"github.com/grainloom/grainloom/pkg/framework/command"
)

// TrackSnapshot is the persisted state of one track.
type TrackSnapshot struct {
	SamplePath string             `json:"sample_path,omitempty"`
	Params     map[uint32]float64 `json:"params"`

	LoopStart  int `json:"loop_start"`
	LoopLength int `json:"loop_length"`
	LoopFade   int `json:"loop_fade"`
}

// Snapshot is the persisted state of the whole engine.
type Snapshot struct {
	Version int                `json:"version"`
	Master  map[uint32]float64 `json:"master"`
	Tracks  []TrackSnapshot    `json:"tracks"`
}

// CurrentVersion is written into new snapshots.
const CurrentVersion = 1

// Capture reads the engine's parameter and loop state. Control-side
// only; sample paths are not known to the engine and stay empty for the
// caller to fill in.
func Capture(e *engine.Engine) *Snapshot {
	s := &Snapshot{
		Version: CurrentVersion,
		Master:  captureParams(e.Params.SortedIDs(), e),
		Tracks:  make([]TrackSnapshot, len(e.Tracks)),
	}
	for i, t := range e.Tracks {
		ts := &s.Tracks[i]
		ts.Params = make(map[uint32]float64)
		for _, id := range t.Params.SortedIDs() {
			if p, ok := t.Params.Get(id); ok {
				ts.Params[id] = p.GetValue()
			}
		}
		ts.LoopStart = t.Tape.LoopStart()
		ts.LoopLength = t.Tape.LoopLength()
		ts.LoopFade = t.Tape.LoopFade()
	}
	return s
}

func captureParams(ids []uint32, e *engine.Engine) map[uint32]float64 {
	out := make(map[uint32]float64, len(ids))
	for _, id := range ids {
		if p, ok := e.Params.Get(id); ok {
			out[id] = p.GetValue()
		}
	}
	return out
}

// Apply restores a snapshot: parameters immediately through their
// atomic targets, loop windows through the command queue so they land
// at a block boundary. Sample reloading is the caller's job (decode,
// resample, LoadRing).
func Apply(e *engine.Engine, s *Snapshot) {
	for id, v := range s.Master {
		if p, ok := e.Params.Get(id); ok {
			p.SetValue(v)
		}
	}
	for i := range s.Tracks {
		if i >= len(e.Tracks) {
			break
		}
		ts := &s.Tracks[i]
		t := e.Tracks[i]
		for id, v := range ts.Params {
			if p, ok := t.Params.Get(id); ok {
				p.SetValue(v)
			}
		}
		if ts.LoopLength > 0 {
			e.Push(command.Command{
				Kind:   command.TapeSetLoop,
				Track:  i,
				Value:  float64(ts.LoopStart),
				Value2: float64(ts.LoopLength),
				Value3: float64(ts.LoopFade),
			})
		}
	}
}
