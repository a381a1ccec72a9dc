package offload

import (
	"sync"
	"time"
)

// Controller runs offload sessions against a registry and an engine.
type Controller struct {
	registry  Resolver
	engine    Engine
	publisher EventPublisher

	// slot holds a token while a session owns the engine.
	slot chan struct{}

	mu        sync.RWMutex
	state     State
	active    uint64
	nextID    uint64
	lastDepth int
	lastErr   string
	sessions  uint64
	completed uint64
	failed    uint64
	busy      uint64
}

// SetEventPublisher replaces the event publisher. Passing nil restores the no-op publisher.
func (c *Controller) SetEventPublisher(p EventPublisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p == nil {
		p = noopPublisher{}
	}
	c.publisher = p
}

// Layers is the number of layers a session may run.
func (c *Controller) Layers() int { return c.registry.Len() }

// Execute runs layers 0..depth in order, feeding input to each, and returns the
// completed session. On any error the session is discarded and no partial
// result is returned.
func (c *Controller) Execute(depth int, input []float32) (*Session, error) {
	id, err := c.acquire(depth)
	if err != nil {
		return nil, err
	}
	defer c.release()

	if n := c.registry.Len(); depth < 0 || depth >= n {
		// Give the id back; nobody else can reserve one while the slot is held.
		c.mu.Lock()
		c.nextID--
		c.mu.Unlock()
		return nil, ErrInvalidDepth(depth, n)
	}

	s := c.begin(id, depth, input)
	for i := 0; i <= depth; i++ {
		art, err := c.registry.Resolve(i)
		if err != nil {
			return nil, c.fail(s, i, err)
		}
		loadStart := time.Now()
		layer, err := c.engine.Load(art)
		if err != nil {
			return nil, c.fail(s, i, err)
		}
		loadSecs := float64(time.Since(loadStart).Microseconds()) / 1e6
		out, secs, err := c.engine.Run(layer, s.Input)
		if err != nil {
			return nil, c.fail(s, i, err)
		}
		s.Results = append(s.Results, LayerResult{Index: i, Seconds: secs, LoadSeconds: loadSecs, Output: out})
		c.publish(Event{Name: EventLayerDone, Session: s.ID, Fields: map[string]any{
			"layer":        i,
			"seconds":      secs,
			"load_seconds": loadSecs,
			"outputs":      len(out),
		}})
	}
	return c.complete(s), nil
}

// acquire takes the session slot and reserves the next session id. The slot
// and the active id change together under mu, so a rejected caller always
// names the session that holds the slot.
func (c *Controller) acquire(depth int) (uint64, error) {
	c.mu.Lock()
	select {
	case c.slot <- struct{}{}:
		c.nextID++
		c.active = c.nextID
		id := c.active
		c.mu.Unlock()
		return id, nil
	default:
	}
	c.busy++
	active := c.active
	pub := c.publisher
	c.mu.Unlock()
	pub.Publish(Event{Name: EventSessionBusy, Session: active, Fields: map[string]any{"depth": depth}})
	return 0, ErrSessionBusy(active)
}

func (c *Controller) release() {
	c.mu.Lock()
	c.active = 0
	<-c.slot
	c.mu.Unlock()
}

func (c *Controller) begin(id uint64, depth int, input []float32) *Session {
	c.mu.Lock()
	s := &Session{
		ID:        id,
		Depth:     depth,
		Input:     append([]float32(nil), input...),
		State:     StateRunning,
		Results:   make([]LayerResult, 0, depth+1),
		StartedAt: time.Now(),
	}
	c.state = StateRunning
	c.lastDepth = depth
	c.sessions++
	pub := c.publisher
	c.mu.Unlock()
	pub.Publish(Event{Name: EventSessionStart, Session: s.ID, Fields: map[string]any{"depth": depth}})
	return s
}

func (c *Controller) complete(s *Session) *Session {
	s.State = StateCompleted
	s.Final = &s.Results[s.Depth]
	s.Duration = time.Since(s.StartedAt)
	c.mu.Lock()
	c.state = StateCompleted
	c.lastErr = ""
	c.completed++
	pub := c.publisher
	c.mu.Unlock()
	pub.Publish(Event{Name: EventSessionDone, Session: s.ID, Fields: map[string]any{
		"depth":  s.Depth,
		"layers": len(s.Results),
		"dur_ms": int(s.Duration / time.Millisecond),
	}})
	return s
}

func (c *Controller) fail(s *Session, layer int, err error) error {
	s.State = StateFailed
	s.Duration = time.Since(s.StartedAt)
	c.mu.Lock()
	c.state = StateFailed
	c.lastErr = err.Error()
	c.failed++
	pub := c.publisher
	c.mu.Unlock()
	pub.Publish(Event{Name: EventSessionFailed, Session: s.ID, Fields: map[string]any{
		"depth": s.Depth,
		"layer": layer,
		"kind":  ErrorKind(err),
		"error": err.Error(),
	}})
	return err
}

func (c *Controller) publish(e Event) {
	c.mu.RLock()
	pub := c.publisher
	c.mu.RUnlock()
	pub.Publish(e)
}
