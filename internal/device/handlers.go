package device

import (
	"context"
	"errors"
	"fmt"

	"nnrunner/internal/offload"
	"nnrunner/internal/wire"
	"nnrunner/pkg/types"
)

// ErrNoInput is returned when an inference request carries no input_data and
// no grid was received on model_data.
var ErrNoInput = errors.New("no input data available")

// onMessage is the transport callback. Errors are logged and counted here.
func (a *Agent) onMessage(topic string, payload []byte) {
	if err := a.HandleMessage(context.Background(), topic, payload); err != nil {
		a.log.Error().Err(err).Str("topic", topic).Str("kind", offload.ErrorKind(err)).Msg("message handling failed")
	}
}

// HandleMessage routes one inbound message by topic.
func (a *Agent) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	var (
		kind string
		err  error
	)
	switch topic {
	case a.topics.ModelData:
		kind = "model_data"
		err = a.handleModelData(payload)
	case a.topics.ModelInference:
		kind = "model_inference"
		err = a.handleInference(ctx, payload)
	case a.topics.EndComputation:
		kind = "end_computation"
		a.doneOnce.Do(func() { close(a.done) })
	default:
		return fmt.Errorf("unexpected topic %q", topic)
	}
	a.cfg.Metrics.observeMessage(kind, err)
	return err
}

func (a *Agent) handleModelData(payload []byte) error {
	req, err := wire.DecodeModelData(payload)
	if err != nil {
		return err
	}
	grid, err := wire.ParseInputData(req.InputData, a.cfg.InputHeight, a.cfg.InputWidth)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.pending = grid
	a.mu.Unlock()
	a.log.Debug().Int("cells", len(grid)).Msg("model input data received")
	return nil
}

func (a *Agent) handleInference(ctx context.Context, payload []byte) error {
	req, err := wire.DecodeInferenceRequest(payload)
	if err != nil {
		return err
	}
	var grid []float32
	if req.InputData != "" {
		grid, err = wire.ParseInputData(req.InputData, a.cfg.InputHeight, a.cfg.InputWidth)
		if err != nil {
			return err
		}
		a.mu.Lock()
		a.pending = grid
		a.mu.Unlock()
	} else {
		a.mu.Lock()
		grid = a.pending
		a.mu.Unlock()
		if grid == nil {
			return ErrNoInput
		}
	}
	msg, err := a.run(req.OffloadingLayerIndex, grid)
	if err != nil {
		return err
	}
	b, err := wire.Marshal(msg)
	if err != nil {
		return err
	}
	if err := a.cfg.Transport.Publish(ctx, a.topics.ModelInferenceResult, b); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	a.log.Info().
		Int("offloading_layer_index", req.OffloadingLayerIndex).
		Str("message_id", msg.MessageID).
		Floats64("layers_inference_time", msg.MessageContent.LayersInferenceTime).
		Msg("published prediction")
	return nil
}

// Offload decodes inputData and runs layers 0..depth, returning the result
// envelope without publishing it.
func (a *Agent) Offload(depth int, inputData string) (types.ResultMessage, error) {
	grid, err := wire.ParseInputData(inputData, a.cfg.InputHeight, a.cfg.InputWidth)
	if err != nil {
		return types.ResultMessage{}, err
	}
	return a.run(depth, grid)
}

func (a *Agent) run(depth int, grid []float32) (types.ResultMessage, error) {
	s, err := a.cfg.Controller.Execute(depth, grid)
	if err != nil {
		return types.ResultMessage{}, err
	}
	r, err := offload.Assemble(s)
	if err != nil {
		return types.ResultMessage{}, err
	}
	return wire.NewResult(a.cfg.DeviceID, a.cfg.NewMessageID(), a.cfg.Now(), r), nil
}
