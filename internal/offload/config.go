package offload

import (
	"nnrunner/internal/engine"
	"nnrunner/internal/registry"
)

// Resolver maps layer indices to artifacts. *registry.Registry satisfies it.
type Resolver interface {
	Resolve(index int) (*registry.Artifact, error)
	Len() int
}

// Engine loads and runs layer artifacts. *engine.Engine satisfies it.
type Engine interface {
	Load(a *registry.Artifact) (*engine.LoadedLayer, error)
	Run(l *engine.LoadedLayer, input []float32) ([]float32, float64, error)
}

// Config encapsulates the collaborators of a Controller.
type Config struct {
	Registry  Resolver
	Engine    Engine
	Publisher EventPublisher
}

// NewWithConfig constructs a Controller from Config.
func NewWithConfig(cfg Config) *Controller {
	c := &Controller{
		registry:  cfg.Registry,
		engine:    cfg.Engine,
		publisher: cfg.Publisher,
		state:     StateIdle,
		lastDepth: -1,
		slot:      make(chan struct{}, 1),
	}
	if c.publisher == nil {
		c.publisher = noopPublisher{}
	}
	return c
}

// New constructs a Controller with the default (no-op) event publisher.
func New(reg Resolver, eng Engine) *Controller {
	return NewWithConfig(Config{Registry: reg, Engine: eng})
}
