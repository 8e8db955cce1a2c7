// Package input performs pointer and keyboard actions at screen coordinates.
//
// Dispatcher implements the action contract of the monitoring loop: pointer
// action, optional delayed text entry, optional confirm key. The physical
// device is behind the Driver interface; Robot is the robotgo-backed
// implementation, and tests substitute a recording fake.
//
// Text entry picks its strategy by content: pure 7-bit ASCII is injected as
// simulated keystrokes, anything else goes through a clipboard round-trip
// (save, write, paste shortcut, best-effort restore) because keystroke
// simulation cannot reliably produce non-Latin scripts.
//
// The dispatcher is invoked synchronously from the single monitoring
// goroutine, so it does not lock around device or clipboard access.
package input
