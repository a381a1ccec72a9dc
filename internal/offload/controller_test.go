package offload

import (
	"math"
	"testing"
	"time"
)

func TestExecuteRunsPrefixInOrder(t *testing.T) {
	c := New(embeddedRegistry(t, 5), realEngine(t))
	input := make([]float32, 100)
	for depth := 0; depth < 5; depth++ {
		s, err := c.Execute(depth, input)
		if err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
		if len(s.Results) != depth+1 {
			t.Fatalf("depth %d: %d results", depth, len(s.Results))
		}
		for i, r := range s.Results {
			if r.Index != i {
				t.Fatalf("depth %d: result %d has index %d", depth, i, r.Index)
			}
			if r.Seconds < 0 || r.LoadSeconds < 0 {
				t.Fatalf("negative timing: %+v", r)
			}
		}
		if s.State != StateCompleted || s.Final == nil || s.Final.Index != depth {
			t.Fatalf("depth %d: unexpected final state %s %+v", depth, s.State, s.Final)
		}
	}
	snap := c.Snapshot()
	if snap.Sessions != 5 || snap.Completed != 5 || snap.State != StateCompleted || snap.LastDepth != 4 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestExecuteInvalidDepth(t *testing.T) {
	eng := &fakeEngine{}
	c := New(fakeRegistry{n: 5}, eng)
	for _, depth := range []int{-1, 5, 42} {
		s, err := c.Execute(depth, nil)
		if !IsInvalidDepth(err) {
			t.Fatalf("depth %d: expected invalid depth, got %v", depth, err)
		}
		if s != nil {
			t.Fatalf("depth %d: partial session returned", depth)
		}
	}
	if len(eng.loaded) != 0 {
		t.Fatalf("engine used for invalid depth: %v", eng.loaded)
	}
	if snap := c.Snapshot(); snap.Sessions != 0 || snap.State != StateIdle {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestExecuteRejectsConcurrentSession(t *testing.T) {
	eng := &fakeEngine{entered: make(chan struct{}), release: make(chan struct{})}
	c := New(fakeRegistry{n: 3}, eng)
	pub := NewMemoryPublisher()
	c.SetEventPublisher(pub)

	type outcome struct {
		s   *Session
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		s, err := c.Execute(0, []float32{1})
		done <- outcome{s, err}
	}()

	select {
	case <-eng.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("first session never reached the engine")
	}
	if !c.Running() {
		t.Fatalf("expected controller to be running")
	}
	s, err := c.Execute(1, []float32{2})
	if !IsSessionBusy(err) || s != nil {
		t.Fatalf("expected session busy, got %v (%v)", err, s)
	}
	close(eng.release)

	select {
	case o := <-done:
		if o.err != nil || o.s == nil || len(o.s.Results) != 1 {
			t.Fatalf("first session: %+v %v", o.s, o.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("first session did not finish")
	}
	if snap := c.Snapshot(); snap.BusyRejections != 1 || snap.Sessions != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	busy := 0
	for _, e := range pub.Events() {
		if e.Name == EventSessionBusy {
			busy++
		}
	}
	if busy != 1 {
		t.Fatalf("expected one session_busy event, got %d", busy)
	}

	// The slot is released once the first session returns.
	eng.entered = nil
	if _, err := c.Execute(2, []float32{3}); err != nil {
		t.Fatalf("follow-up session: %v", err)
	}
}

func TestExecuteFeedsOriginalInputToEveryLayer(t *testing.T) {
	eng := &fakeEngine{}
	c := New(fakeRegistry{n: 4}, eng)
	input := []float32{1, 2, 3}
	if _, err := c.Execute(3, input); err != nil {
		t.Fatalf("execute: %v", err)
	}
	input[0] = 99 // caller mutation after Execute must not matter
	if len(eng.inputs) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(eng.inputs))
	}
	for i, in := range eng.inputs {
		if len(in) != 3 || in[0] != 1 || in[1] != 2 || in[2] != 3 {
			t.Fatalf("layer %d received %v", i, in)
		}
	}
	if got := eng.loaded; len(got) != 4 || got[0] != 0 || got[3] != 3 {
		t.Fatalf("load order %v", got)
	}
}

func TestExecuteFailureDiscardsSession(t *testing.T) {
	cases := map[string]struct {
		reg Resolver
		eng *fakeEngine
	}{
		"load":    {fakeRegistry{n: 4}, &fakeEngine{loadErr: map[int]error{2: errBoom}}},
		"run":     {fakeRegistry{n: 4}, &fakeEngine{runErr: map[int]error{1: errBoom}}},
		"resolve": {shortRegistry{fakeRegistry{n: 4}, 2}, &fakeEngine{}},
	}
	for name, tc := range cases {
		c := New(tc.reg, tc.eng)
		pub := NewMemoryPublisher()
		c.SetEventPublisher(pub)
		s, err := c.Execute(3, []float32{0})
		if err == nil || s != nil {
			t.Fatalf("%s: expected error and no session, got %v %v", name, s, err)
		}
		snap := c.Snapshot()
		if snap.State != StateFailed || snap.Failed != 1 || snap.LastError == "" {
			t.Fatalf("%s: unexpected snapshot %+v", name, snap)
		}
		evts := pub.Events()
		if last := evts[len(evts)-1]; last.Name != EventSessionFailed {
			t.Fatalf("%s: last event %q", name, last.Name)
		}
		if tc.eng.loaded != nil && len(tc.eng.loaded) > 3 {
			t.Fatalf("%s: execution continued after failure: %v", name, tc.eng.loaded)
		}
	}
}

func TestExecuteUnknownLayerKind(t *testing.T) {
	c := New(shortRegistry{fakeRegistry{n: 3}, 1}, &fakeEngine{})
	_, err := c.Execute(2, nil)
	if !IsUnknownLayer(err) || ErrorKind(err) != "unknown_layer" {
		t.Fatalf("expected unknown layer, got %v (%s)", err, ErrorKind(err))
	}
}

func TestExecuteEventsInOrder(t *testing.T) {
	c := New(fakeRegistry{n: 3}, &fakeEngine{})
	pub := NewMemoryPublisher()
	c.SetEventPublisher(pub)
	if _, err := c.Execute(1, []float32{0}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := []string{EventSessionStart, EventLayerDone, EventLayerDone, EventSessionDone}
	got := pub.Events()
	if len(got) != len(want) {
		t.Fatalf("events: %+v", got)
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Fatalf("event %d = %q, want %q", i, got[i].Name, want[i])
		}
		if got[i].Session != 1 {
			t.Fatalf("event %d for session %d", i, got[i].Session)
		}
	}
	if got[2].Fields["layer"] != 1 {
		t.Fatalf("second layer_done fields: %+v", got[2].Fields)
	}
}

// Three-layer registry, depth 2, all-zero input: the result carries three
// timings and the output of layer 2 run directly on zeros.
func TestExecuteEndToEndDepthTwo(t *testing.T) {
	reg := embeddedRegistry(t, 3)
	c := New(reg, realEngine(t))
	zeros := make([]float32, 10*10)
	s, err := c.Execute(2, zeros)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	res, err := Assemble(s)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if res.Depth != 2 || len(res.Timings) != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}

	direct := realEngine(t)
	a, _ := reg.Resolve(2)
	l, err := direct.Load(a)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want, _, err := direct.Run(l, zeros)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.FinalOutput) != len(want) {
		t.Fatalf("output len %d, want %d", len(res.FinalOutput), len(want))
	}
	for i := range want {
		if math.Float32bits(res.FinalOutput[i]) != math.Float32bits(want[i]) {
			t.Fatalf("output %d: %v != %v", i, res.FinalOutput[i], want[i])
		}
	}
}

func TestExecuteBusyTakesPrecedenceOverDepth(t *testing.T) {
	eng := &fakeEngine{entered: make(chan struct{}), release: make(chan struct{})}
	c := New(fakeRegistry{n: 3}, eng)
	pub := NewMemoryPublisher()
	c.SetEventPublisher(pub)

	done := make(chan error, 1)
	go func() {
		_, err := c.Execute(0, []float32{1})
		done <- err
	}()
	select {
	case <-eng.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("first session never reached the engine")
	}

	// Out-of-range and valid depths are both rejected as busy, naming session 1.
	for _, depth := range []int{-1, 1, 99} {
		_, err := c.Execute(depth, []float32{2})
		if !IsSessionBusy(err) {
			t.Fatalf("depth %d while running: expected session busy, got %v", depth, err)
		}
		if want := "session busy: session 1 is running"; err.Error() != want {
			t.Fatalf("depth %d: error %q, want %q", depth, err.Error(), want)
		}
	}
	close(eng.release)
	if err := <-done; err != nil {
		t.Fatalf("first session: %v", err)
	}
	for _, e := range pub.Events() {
		if e.Name == EventSessionBusy && e.Session != 1 {
			t.Fatalf("busy event names session %d, want 1", e.Session)
		}
	}
}

func TestExecuteInvalidDepthDoesNotConsumeSessionID(t *testing.T) {
	c := New(fakeRegistry{n: 2}, &fakeEngine{})
	if _, err := c.Execute(7, nil); !IsInvalidDepth(err) {
		t.Fatalf("expected invalid depth, got %v", err)
	}
	s, err := c.Execute(1, []float32{1})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if s.ID != 1 {
		t.Fatalf("session id %d, want 1", s.ID)
	}
	// The slot is free again after both calls.
	if _, err := c.Execute(0, []float32{1}); err != nil {
		t.Fatalf("follow-up: %v", err)
	}
}
