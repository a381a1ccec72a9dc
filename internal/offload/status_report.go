package offload

// Snapshot returns a read-only view of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		State:          c.state,
		Layers:         c.registry.Len(),
		LastDepth:      c.lastDepth,
		LastError:      c.lastErr,
		Sessions:       c.sessions,
		Completed:      c.completed,
		Failed:         c.failed,
		BusyRejections: c.busy,
	}
}

// Running reports whether a session currently owns the engine.
func (c *Controller) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == StateRunning
}
