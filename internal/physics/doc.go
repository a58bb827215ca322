// Package physics provides the force model of a bungee jump.
//
// [Bungee] implements [dynamo.System] for the state {y, v}, where y is the
// height remaining above the ground and v = dy/dt. The acceleration is a
// piecewise law selected by [Bungee.Classify]:
//
//   - [Ground]: y <= 0, gravity plus the cord's restoring force, no drag
//   - [Stretched]: y below the taut height, gravity plus cord plus drag
//   - [FreeFall]: cord slack, gravity plus drag
//
// Bungee also implements [dynamo.Hamiltonian] and [dynamo.Validator]. Its
// parameters are fixed at construction, so one value can be shared by
// concurrent solves:
//
//	b := physics.NewBungee(physics.DefaultParams())
//	a := b.Derive(b.InitialState(), 0)[1] // -9.81
package physics
