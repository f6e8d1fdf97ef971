package flatness

import "math"

// StateRecord is the full vehicle state reconstructed from the flat output:
// position, velocity, Euler angles (roll, pitch, yaw) and body rates.
type StateRecord struct {
	X, Y, Z         float64
	VX, VY, VZ      float64
	Phi, Theta, Psi float64
	P, Q, R         float64
}

// Vector returns the record in field order.
func (s StateRecord) Vector() []float64 {
	return []float64{s.X, s.Y, s.Z, s.VX, s.VY, s.VZ, s.Phi, s.Theta, s.Psi, s.P, s.Q, s.R}
}

// Tilt is the angle between the body z axis and the vertical.
func (s StateRecord) Tilt() float64 {
	return math.Acos(math.Cos(s.Phi) * math.Cos(s.Theta))
}

// InputRecord is the control command: collective thrust and body torques.
type InputRecord struct {
	Thrust                    float64
	TorqueX, TorqueY, TorqueZ float64
}

// Vector returns thrust followed by the three torques.
func (in InputRecord) Vector() []float64 {
	return []float64{in.Thrust, in.TorqueX, in.TorqueY, in.TorqueZ}
}

// StateFields names the entries of StateRecord.Vector.
var StateFields = []string{"x", "y", "z", "vx", "vy", "vz", "phi", "theta", "psi", "p", "q", "r"}

// InputFields names the entries of InputRecord.Vector.
var InputFields = []string{"thrust", "tau_x", "tau_y", "tau_z"}
