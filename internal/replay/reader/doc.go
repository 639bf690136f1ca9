// Package reader implements the sequential multi-branch reader: it replays a
// stored dataset entry by entry, publishing one collection per enabled branch
// under a stable output identity, and signals end-of-stream exactly once.
//
// A Reader is affine to one scheduling context; it is not safe for
// concurrent use.
package reader
