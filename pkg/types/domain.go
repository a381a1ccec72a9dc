package types

// LayerInfo describes one compiled layer artifact.
type LayerInfo struct {
	// Position of the layer in execution order.
	// example: 0
	Index int `json:"index" example:"0"`
	// Artifact name.
	// example: layer_0.nnl
	Name string `json:"name" example:"layer_0.nnl"`
	// Artifact schema version.
	// example: 3
	SchemaVersion uint32 `json:"schema_version" example:"3"`
	// Input grid height.
	// example: 10
	InputHeight int `json:"input_height" example:"10"`
	// Input grid width.
	// example: 10
	InputWidth int `json:"input_width" example:"10"`
	// Length of the output vector.
	// example: 32
	OutputSize int `json:"output_size" example:"32"`
	// Number of operations in the layer.
	// example: 1
	Ops int `json:"ops" example:"1"`
	// Arena bytes needed to bind the layer.
	// example: 528
	ArenaBytes int `json:"arena_bytes" example:"528"`
	// Encoded artifact size in bytes.
	// example: 12944
	SizeBytes int `json:"size_bytes" example:"12944"`
}
