// Package plan ties cut selection and timeline planning into one persisted
// document.
//
// A Document carries the inputs (beats and parameters), the chosen cuts,
// the raw segment durations and the resulting render plan. Its ID is a
// UUIDv5 over the canonical inputs, so identical requests always map to the
// same document. Documents are written as JSON and can be replayed without
// beat detection or selection.
package plan
