// Package pipeline is the in-process scheduler and transport for replay
// workflows.
//
// It is the composition root: it wires the reader, the integrator and the
// persistence sinks into an ordered stage list and drives them one entry at
// a time. None of those packages import pipeline/.
package pipeline
