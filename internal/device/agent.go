package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"nnrunner/internal/engine"
	"nnrunner/internal/offload"
	"nnrunner/internal/registry"
	"nnrunner/internal/wire"
	"nnrunner/pkg/types"
)

// Transport is the publish/subscribe link the agent talks through.
type Transport interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string, handler func(topic string, payload []byte)) error
}

// Config wires an Agent.
type Config struct {
	DeviceID          string
	RegistrationTopic string
	// InputHeight and InputWidth size the decoded grid. Zero means the shape
	// of layer 0.
	InputHeight int
	InputWidth  int
	ArenaBytes  int

	Controller *offload.Controller
	Registry   *registry.Registry
	Transport  Transport
	Metrics    *Metrics
	Logger     zerolog.Logger

	// Now and NewMessageID default to time.Now and wire.NewMessageID.
	Now          func() time.Time
	NewMessageID func() string
}

// Agent is the device side of the offload protocol.
type Agent struct {
	cfg     Config
	topics  Topics
	log     zerolog.Logger
	started time.Time

	mu      sync.Mutex
	pending []float32

	registered atomic.Bool
	done       chan struct{}
	doneOnce   sync.Once
}

// New validates cfg and constructs an Agent.
func New(cfg Config) (*Agent, error) {
	if cfg.DeviceID == "" {
		return nil, errors.New("device: device id is required")
	}
	if cfg.Controller == nil || cfg.Registry == nil {
		return nil, errors.New("device: controller and registry are required")
	}
	if cfg.RegistrationTopic == "" {
		cfg.RegistrationTopic = DefaultRegistrationTopic
	}
	if cfg.InputHeight == 0 || cfg.InputWidth == 0 {
		first, err := cfg.Registry.Resolve(0)
		if err != nil {
			return nil, fmt.Errorf("device: input shape: %w", err)
		}
		cfg.InputHeight, cfg.InputWidth = first.InputHeight, first.InputWidth
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewMessageID == nil {
		cfg.NewMessageID = wire.NewMessageID
	}
	return &Agent{
		cfg:     cfg,
		topics:  TopicsFor(cfg.DeviceID),
		log:     cfg.Logger.With().Str("device_id", cfg.DeviceID).Logger(),
		started: cfg.Now(),
		done:    make(chan struct{}),
	}, nil
}

// Topics returns the agent's topic names.
func (a *Agent) Topics() Topics { return a.topics }

// Start subscribes to the inbound topics and then publishes the registration event.
func (a *Agent) Start(ctx context.Context) error {
	if a.cfg.Transport == nil {
		return errors.New("device: no transport configured")
	}
	for _, t := range a.topics.Inbound() {
		if err := a.cfg.Transport.Subscribe(ctx, t, a.onMessage); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
		a.log.Debug().Str("topic", t).Msg("subscribed")
	}
	return a.Register(ctx)
}

// Run starts the agent and blocks until end_computation arrives or ctx ends.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	select {
	case <-a.done:
		a.log.Info().Msg("computation ended")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register publishes the registration event once.
func (a *Agent) Register(ctx context.Context) error {
	if a.registered.Load() {
		return nil
	}
	msg := wire.NewRegistration(a.cfg.DeviceID, a.cfg.NewMessageID(), a.cfg.Now())
	b, err := wire.Marshal(msg)
	if err != nil {
		return err
	}
	if err := a.cfg.Transport.Publish(ctx, a.cfg.RegistrationTopic, b); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	a.registered.Store(true)
	a.log.Info().Str("topic", a.cfg.RegistrationTopic).Str("message_id", msg.MessageID).Msg("device registered")
	return nil
}

// Done is closed when end_computation is received.
func (a *Agent) Done() <-chan struct{} { return a.done }

// Ready reports whether the registration event was published.
func (a *Agent) Ready() bool { return a.registered.Load() }

// Status summarizes the agent and its controller.
func (a *Agent) Status() types.StatusResponse {
	snap := a.cfg.Controller.Snapshot()
	a.mu.Lock()
	pending := a.pending != nil
	a.mu.Unlock()
	now := a.cfg.Now()
	return types.StatusResponse{
		DeviceID:            a.cfg.DeviceID,
		State:               string(snap.State),
		Layers:              snap.Layers,
		LastDepth:           snap.LastDepth,
		LastError:           snap.LastError,
		SessionsTotal:       snap.Sessions,
		CompletedTotal:      snap.Completed,
		FailedTotal:         snap.Failed,
		BusyRejectionsTotal: snap.BusyRejections,
		ArenaBytes:          a.cfg.ArenaBytes,
		PendingInput:        pending,
		Registered:          a.Ready(),
		UptimeSeconds:       int64(now.Sub(a.started) / time.Second),
		ServerTimeUnix:      now.Unix(),
	}
}

// Layers describes the registry contents.
func (a *Agent) Layers() []types.LayerInfo { return LayerInfos(a.cfg.Registry) }

// LayerInfos describes every artifact of reg, including its arena requirement.
func LayerInfos(reg *registry.Registry) []types.LayerInfo {
	layers := reg.Layers()
	out := make([]types.LayerInfo, 0, len(layers))
	for _, l := range layers {
		out = append(out, types.LayerInfo{
			Index:         l.Index,
			Name:          l.Name,
			SchemaVersion: l.SchemaVersion,
			InputHeight:   l.InputHeight,
			InputWidth:    l.InputWidth,
			OutputSize:    l.OutputSize(),
			Ops:           len(l.Ops),
			ArenaBytes:    engine.Requirement(l),
			SizeBytes:     l.Size,
		})
	}
	return out
}
