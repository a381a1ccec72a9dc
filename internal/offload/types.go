package offload

import "time"

// State is the lifecycle state of a session.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s == StateCompleted || s == StateFailed }

// LayerResult is the record of one executed layer. It is not mutated after
// being appended to a session.
type LayerResult struct {
	Index int
	// Seconds is the engine's run time for the layer.
	Seconds float64
	// LoadSeconds is the time spent binding the artifact to the arena.
	LoadSeconds float64
	Output      []float32
}

// Session is one request-to-result execution cycle.
type Session struct {
	ID        uint64
	Depth     int
	Input     []float32
	State     State
	Results   []LayerResult
	Final     *LayerResult
	StartedAt time.Time
	Duration  time.Duration
}

// Snapshot is a read-only projection of the controller state.
type Snapshot struct {
	State          State
	Layers         int
	LastDepth      int
	LastError      string
	Sessions       uint64
	Completed      uint64
	Failed         uint64
	BusyRejections uint64
}
