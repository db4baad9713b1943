// Package command provides the lock-free control-to-render handoff. The
// control context pushes commands, the render context drains them at the
// top of each block. Single producer, single consumer.
package command

import (
	"sync/atomic"

	"github.com/grainloom/grainloom/pkg/dsp/ringbuf"
)

// Kind identifies a command.
type Kind int

const (
	// None is the zero command and is ignored by consumers.
	None Kind = iota
	// TapePlay starts tape playback on a track.
	TapePlay
	// TapeStop stops the tape on a track.
	TapeStop
	// TapeRecord arms recording on a track.
	TapeRecord
	// TapeOverdub arms overdubbing on a track.
	TapeOverdub
	// TapeFreeze toggles the freeze state on a track.
	TapeFreeze
	// TapeClear erases a track's tape buffer.
	TapeClear
	// TapeRotate shifts a track's loop window by Value samples.
	TapeRotate
	// TapeSetLoop sets the loop window: Value start, Value2 length,
	// Value3 crossfade, all in samples.
	TapeSetLoop
	// LoadRing swaps in a prepared audio buffer built on the control
	// side. The old buffer is returned to the control side for release.
	LoadRing
	// MosaicTrigger fires a single grain immediately.
	MosaicTrigger
	// MetronomeCountIn starts a count-in of Value beats.
	MetronomeCountIn
	// PanicReset hard-resets all voices and device state.
	PanicReset
)

// Command is one control-side instruction. Ring is only set for
// LoadRing; Value2 and Value3 only for TapeSetLoop.
type Command struct {
	Kind   Kind
	Track  int
	Value  float64
	Value2 float64
	Value3 float64
	Ring   *ringbuf.Ring
}

// QueueCapacity bounds the number of in-flight commands. Power of two
// so the ring indices can mask instead of divide.
const QueueCapacity = 256

// Queue is a single-producer single-consumer ring of commands. Push
// never blocks; when the queue is full the command is dropped and Push
// reports failure so the control side can retry or surface the error.
type Queue struct {
	buf  [QueueCapacity]Command
	head atomic.Uint64 // consumer position
	tail atomic.Uint64 // producer position
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push enqueues a command from the control context. Returns false when
// the queue is full.
func (q *Queue) Push(c Command) bool {
	tail := q.tail.Load()
	head := q.head.Load()
	if tail-head >= QueueCapacity {
		return false
	}
	q.buf[tail&(QueueCapacity-1)] = c
	q.tail.Store(tail + 1)
	return true
}

// Pop dequeues one command from the render context. Returns false when
// the queue is empty.
func (q *Queue) Pop() (Command, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return Command{}, false
	}
	c := q.buf[head&(QueueCapacity-1)]
	q.head.Store(head + 1)
	return c, true
}

// Drain pops every pending command, invoking fn for each. Called at the
// top of the render block.
func (q *Queue) Drain(fn func(Command)) {
	for {
		c, ok := q.Pop()
		if !ok {
			return
		}
		fn(c)
	}
}

// Len returns the number of pending commands. Approximate under
// concurrent access; exact from either endpoint alone.
func (q *Queue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}
