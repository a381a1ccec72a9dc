// Package wire encodes and decodes the device messages exchanged with the
// edge collaborator: inference requests, model data, results and the
// registration event.
//
// Files:
//   - codec.go: JSON decoding/encoding of request and result envelopes.
//   - grid.go: digit-string input grids and output formatting.
//   - ids.go: timestamps and message identifiers.
package wire
