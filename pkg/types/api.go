package types

// InferenceRequest is the payload of a model_inference message and of POST /offload.
type InferenceRequest struct {
	// Highest layer index to execute; layers 0..index run in order.
	// example: 2
	OffloadingLayerIndex int `json:"offloading_layer_index" example:"2"`
	// Row-major input grid encoded as one ASCII digit per cell (height*width digits).
	// example: 0000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000
	InputData string `json:"input_data" example:"0000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000"`
}

// ModelDataRequest is the payload of a model_data message.
type ModelDataRequest struct {
	// Row-major input grid encoded as ASCII digits.
	InputData string `json:"input_data"`
}

// ResultContent is the message_content of an inference result.
type ResultContent struct {
	// Output vector of the last executed layer, formatted with two decimals.
	// example: ["0.12","0.00","1.37"]
	LayerOutput []string `json:"layer_output" example:"0.12,0.00,1.37"`
	// Highest executed layer index.
	// example: 2
	OffloadingLayerIndex int `json:"offloading_layer_index" example:"2"`
	// Per-layer execution time in seconds, ordered by layer index.
	// example: [0.000412,0.000655,0.000301]
	LayersInferenceTime []float64 `json:"layers_inference_time"`
}

// ResultMessage is published on <device_id>/model_inference_result and returned by POST /offload.
type ResultMessage struct {
	// Unix time with microsecond precision.
	// example: 1700000000.123456
	Timestamp string `json:"timestamp" example:"1700000000.123456"`
	// Short random identifier.
	// example: 9f3a
	MessageID string `json:"message_id" example:"9f3a"`
	// example: device_01
	DeviceID       string        `json:"device_id" example:"device_01"`
	MessageContent ResultContent `json:"message_content"`
}

// RegistrationMessage is published once on startup.
type RegistrationMessage struct {
	// example: 1700000000.123456
	Timestamp string `json:"timestamp" example:"1700000000.123456"`
	// example: 9f3a
	MessageID string `json:"message_id" example:"9f3a"`
	// example: device_01
	DeviceID string `json:"device_id" example:"device_01"`
	// example: HelloWorld!
	MessageContent string `json:"message_content" example:"HelloWorld!"`
}

// LayersResponse wraps the list of layers returned by GET /layers.
type LayersResponse struct {
	// Layers known to the registry, ordered by index.
	Layers []LayerInfo `json:"layers"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Error classification (invalid_depth, session_busy, unknown_layer, ...).
	// example: invalid_depth
	Kind string `json:"kind,omitempty" example:"invalid_depth"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Device identifier used for topics and messages.
	// example: device_01
	DeviceID string `json:"device_id" example:"device_01"`
	// Session controller state (idle, running, completed, failed).
	// example: completed
	State string `json:"state" example:"completed"`
	// Number of known layers.
	// example: 5
	Layers int `json:"layers" example:"5"`
	// Depth of the most recent session, -1 before the first one.
	// example: 2
	LastDepth int `json:"last_depth" example:"2"`
	// Last session error observed (if any).
	LastError string `json:"last_error,omitempty"`
	// example: 12
	SessionsTotal uint64 `json:"sessions_total" example:"12"`
	// example: 11
	CompletedTotal uint64 `json:"completed_total" example:"11"`
	// example: 1
	FailedTotal uint64 `json:"failed_total" example:"1"`
	// Number of requests rejected because a session was running.
	// example: 0
	BusyRejectionsTotal uint64 `json:"busy_rejections_total" example:"0"`
	// Arena capacity in bytes.
	// example: 12288
	ArenaBytes int `json:"arena_bytes" example:"12288"`
	// Whether an input grid from model_data is pending.
	// example: false
	PendingInput bool `json:"pending_input" example:"false"`
	// Whether the registration event was published.
	// example: true
	Registered bool `json:"registered" example:"true"`
	// Uptime of the agent in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
