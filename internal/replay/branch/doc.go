// Package branch owns the Branch Set Descriptor: which record collections a
// replay session reads, under which names, and the output identity each one is
// published with.
//
// The enabled set is fixed once per session from two capability flags; it is
// assembled data-drivenly from a detector Layout rather than by enumerating
// the four flag combinations.
package branch
