// Package breath implements the breathing cycle engine.
//
// Machine is a pure state machine that walks a pattern's phases on a
// wall-clock schedule. Runner drives a Machine with a single timer and fans its
// events out to subscribers such as the TUI, the sound coordinator and the
// breath counter.
package breath
