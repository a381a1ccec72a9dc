package offload

import "fmt"

// Result is the transmission-ready summary of a completed session.
type Result struct {
	Depth       int
	FinalOutput []float32
	// Timings holds per-layer run seconds ordered by layer index.
	Timings []float64
}

// Assemble packages a completed session. It performs no I/O.
func Assemble(s *Session) (Result, error) {
	if s == nil {
		return Result{}, fmt.Errorf("assemble: nil session")
	}
	if s.State != StateCompleted || s.Final == nil {
		return Result{}, fmt.Errorf("assemble: session %d is %s", s.ID, s.State)
	}
	if len(s.Results) != s.Depth+1 {
		return Result{}, fmt.Errorf("assemble: session %d has %d results for depth %d", s.ID, len(s.Results), s.Depth)
	}
	r := Result{
		Depth:       s.Depth,
		FinalOutput: append([]float32(nil), s.Final.Output...),
		Timings:     make([]float64, len(s.Results)),
	}
	for i, lr := range s.Results {
		r.Timings[i] = lr.Seconds
	}
	return r, nil
}
