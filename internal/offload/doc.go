// Package offload drives layer-wise offload sessions. It is structured into
// small files by concern:
//
//   - controller.go: Controller, Execute and the session state machine.
//   - config.go: Config and NewWithConfig.
//   - types.go: State, Session, LayerResult, Snapshot.
//   - errors.go: error types and helpers (IsSessionBusy, IsInvalidDepth, ...).
//   - assembler.go: ResultAssembler turning a completed session into a Result.
//   - events.go: lifecycle events and publishers.
//   - status_report.go: Snapshot reporting.
//
// A session runs layers 0..depth in strictly increasing order. Every layer is
// fed the caller's original input; outputs are not chained. Only one session
// may hold the engine at a time; a concurrent Execute fails with a
// session-busy error instead of waiting.
//
// The controller performs no logging or I/O. Callers observe it through the
// returned errors and the configured EventPublisher.
package offload
