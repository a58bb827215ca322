// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator], [AdaptiveIntegrator]: single-step methods
//   - [Config]: time span, step bounds and tolerances of a solve
//   - [Trajectory]: the accepted-step output of a solve
//
// # Errors
//
// Solvers report [ErrInvalidParameters], [ErrNumericalInstability] and
// [ErrIntegrationFailure] wrapped in a [SimulationError]; match them with
// errors.Is.
package dynamo
