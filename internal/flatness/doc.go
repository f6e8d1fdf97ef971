// Package flatness turns a flat-output vector field into quadrotor state and
// control commands.
//
// An [Engine] owns the derivative ladder of a field and the symbolic
// endogenous transformation ([Equations]) built for one set of
// [VehicleParameters]. Both are immutable, so a single engine can serve
// concurrent queries. [Session] wraps an engine for hosts that initialize
// from a file and may swap the field while running.
//
// # Example
//
//	eng, err := flatness.Init("circle.txt", 2, [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
//	if err != nil {
//		return err
//	}
//	in, st, err := eng.Update(1, 0, 0, 0)
//	if errors.Is(err, flatness.ErrDomain) {
//		// singular configuration, keep the previous command
//	}
package flatness
