// Package engine executes compiled layer artifacts inside a fixed scratch arena.
//
// The engine owns its arena exclusively. Load re-binds the whole arena to one
// artifact (input tensor plus one activation tensor per op); Run copies the
// caller's input in, evaluates the ops in order and copies the final
// activation out. Any LoadedLayer obtained before the latest Load is stale and
// Run rejects it.
//
// Files:
//
//   - engine.go: Engine, LoadedLayer, Load/Run.
//   - kernels.go: dense matvec and activations.
//   - errors.go: error types and IsX helpers.
package engine
