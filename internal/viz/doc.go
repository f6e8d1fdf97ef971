// Package viz renders a running flat-output simulation in the terminal.
//
// [Model] is a Bubble Tea program that steps a simulation one tick per frame
// and shows the top-down path on a Braille [Canvas] next to the attitude and
// commands behind each tick.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart from the initial flat output
//	T     - Cycle color themes
//	?     - Toggle help
//	Q     - Quit
package viz
