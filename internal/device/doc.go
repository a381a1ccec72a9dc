// Package device implements the edge device agent. It routes inbound
// transport messages to the offload controller, publishes results and the
// one-shot registration event, and reports session metrics.
//
// Files:
//   - agent.go: Agent construction, Start/Run, registration and status.
//   - handlers.go: per-topic message handling and Offload.
//   - topics.go: topic naming under <device_id>/.
//   - metrics.go: Prometheus collectors driven by controller events.
//   - events.go: structured logging of controller events.
package device
