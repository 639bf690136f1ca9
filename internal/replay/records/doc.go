// Package records owns the replay data model: record schemas for every
// branch kind, the stable output identity used to route collections between
// stages, and the per-entry Bundle the reader hands downstream.
//
// Key types: ROFRecord, ChannelData, ClusterSummary, Kind, Output, Bundle.
//
// Dependency rule: records depends on nothing else in internal/replay.
// No I/O is allowed in this package.
package records
