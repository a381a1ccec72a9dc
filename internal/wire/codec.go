package wire

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"nnrunner/internal/offload"
	"nnrunner/pkg/types"
)

// RegistrationContent is the fixed message_content of the registration event.
const RegistrationContent = "HelloWorld!"

// DecodeInferenceRequest parses a model_inference payload.
func DecodeInferenceRequest(b []byte) (types.InferenceRequest, error) {
	var req types.InferenceRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return req, fmt.Errorf("decode inference request: %w", err)
	}
	return req, nil
}

// DecodeModelData parses a model_data payload.
func DecodeModelData(b []byte) (types.ModelDataRequest, error) {
	var req types.ModelDataRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return req, fmt.Errorf("decode model data: %w", err)
	}
	return req, nil
}

// NewResult wraps an assembled session result in the outbound envelope.
func NewResult(deviceID, messageID string, now time.Time, r offload.Result) types.ResultMessage {
	timings := make([]float64, len(r.Timings))
	copy(timings, r.Timings)
	return types.ResultMessage{
		Timestamp: Timestamp(now),
		MessageID: messageID,
		DeviceID:  deviceID,
		MessageContent: types.ResultContent{
			LayerOutput:          FormatOutput(r.FinalOutput),
			OffloadingLayerIndex: r.Depth,
			LayersInferenceTime:  timings,
		},
	}
}

// NewRegistration builds the one-shot registration event.
func NewRegistration(deviceID, messageID string, now time.Time) types.RegistrationMessage {
	return types.RegistrationMessage{
		Timestamp:      Timestamp(now),
		MessageID:      messageID,
		DeviceID:       deviceID,
		MessageContent: RegistrationContent,
	}
}

// Marshal encodes a message for publication.
func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return b, nil
}
