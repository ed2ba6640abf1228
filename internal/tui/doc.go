// Package tui provides the terminal user interface for breathe.
//
// The App model renders the breathing orb, the phase countdown and progress,
// session stats and a settings panel. It drives the engine through the Engine
// interface and learns about state changes from engine events forwarded as
// EngineEventMsg:
//
//	app := tui.NewApp(tui.Options{Engine: runner, Store: prefsStore, ...})
//	program := tui.NewProgram(app, true)
//	go forward(program, runner.Subscribe(64))
//	program.Run()
package tui
