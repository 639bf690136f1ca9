// Package integrator reduces channel-level signal records into one cluster
// summary per readout interval, dropping sub-threshold noise.
//
// A channel is accepted when its amplitude reaches MinAmpl; an interval is
// retained when its accepted channel count reaches MinNChan. Both thresholds
// are inclusive and a zero threshold disables its filter.
package integrator
