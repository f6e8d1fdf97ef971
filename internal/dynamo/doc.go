// Package dynamo provides the simulation loop that drives a vehicle along
// a flat-output trajectory.
//
// The package defines the interfaces the loop is built from:
//
//   - [State]: flat-output sample (x, y, z, yaw) or any other state vector
//   - [System]: kinematics dX/dt = f(X, u, t)
//   - [Integrator]: numerical stepper
//   - [Controller]: produces one command per tick
//   - [Simulator]: orchestrates a run and collects the trajectory
//
// # Example
//
//	sys := models.NewFlatField(f)
//	ctrl := control.NewFeedforward(engine)
//	sim := dynamo.New(sys, integrators.NewRK4(), ctrl)
//	result, err := sim.Run(ctx, dynamo.State{1, 0, 0, 0}, dynamo.DefaultConfig())
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe: integrators keep scratch buffers
// and controllers keep the last command. Use [Ensemble] to run several
// trajectories in parallel, one simulator per run.
package dynamo
