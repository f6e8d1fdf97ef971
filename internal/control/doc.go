// Package control turns flatness engine output into per-tick commands.
//
// Controllers implement [dynamo.Controller]:
//
//   - [Feedforward]: queries the flatness engine every tick and holds the
//     last valid command through singular configurations
//   - [Hover]: constant thrust balancing gravity, zero torque
//
// # Usage
//
//	ff := control.NewFeedforward(engine, params)
//	sim := dynamo.New(models.NewFlatField(f), integrators.NewRK4(), ff)
//
// Commands are laid out as (thrust, τx, τy, τz).
package control
