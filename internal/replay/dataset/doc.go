// Package dataset stores replayable detector entries on disk.
//
// A dataset is a directory holding header.json, a binary seek index and
// chunk files of length-prefixed, zstd-compressed entries. Each entry maps a
// branch name to its JSON-encoded record array. The package knows nothing
// about record schemas; decoding is left to the reader.
package dataset
