package renderer

// State is the scheduling state of the accumulator
type State int

const (
	// Idle renders only on demand, always with frame index 0
	Idle State = iota
	// Accumulating renders continuously with an increasing frame index
	Accumulating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	default:
		return "unknown"
	}
}

// Accumulator tracks the frame index the executor uses as its running-average weight.
// It is not safe for concurrent use; Loop serializes access to it.
type Accumulator struct {
	state State
	frame uint32
}

// NewAccumulator creates an accumulator at frame 0
func NewAccumulator(progressive bool) *Accumulator {
	a := &Accumulator{}
	if progressive {
		a.state = Accumulating
	}
	return a
}

// NextFrame returns the index to submit with the next frame and whether another frame should follow,
// then advances past it. It is Peek followed by Advance.
func (a *Accumulator) NextFrame() (uint32, bool) {
	index, next := a.Peek()
	a.Advance()
	return index, next
}

// Peek returns the index the next frame must carry without consuming it.
// While idle the index is pinned to 0.
func (a *Accumulator) Peek() (uint32, bool) {
	if a.state != Accumulating {
		return 0, false
	}
	return a.frame, true
}

// Advance consumes the peeked index once the executor has accepted the frame
func (a *Accumulator) Advance() {
	if a.state != Accumulating {
		a.frame = 0
		return
	}
	a.frame++
}

// Reset restarts the running average from the next frame
func (a *Accumulator) Reset() {
	a.frame = 0
}

// SetProgressive switches between accumulating and idle, resetting the counter.
// It reports whether the caller should kick off a render.
func (a *Accumulator) SetProgressive(on bool) bool {
	a.Reset()
	if on {
		a.state = Accumulating
	} else {
		a.state = Idle
	}
	return on
}

// Frame returns the index the next accumulating frame will carry
func (a *Accumulator) Frame() uint32 {
	return a.frame
}

// State returns the scheduling state
func (a *Accumulator) State() State {
	return a.state
}
