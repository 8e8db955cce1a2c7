package input

import (
	"github.com/go-vgo/robotgo"
)

// Driver is the low-level pointer/keyboard/clipboard device.
type Driver interface {
	// Move positions the pointer at (x, y), smoothed over roughly the
	// given duration in seconds (0 = instant).
	Move(x, y int, seconds float64)
	// Click performs a pointer click at (x, y) with the given button
	// ("left" or "right"), optionally a double click.
	Click(x, y int, button string, double bool)
	// Scroll issues vertical scroll ticks at the current pointer position;
	// negative ticks scroll down, positive scroll up.
	Scroll(ticks int)
	// KeyTap presses and releases a key with optional modifiers.
	KeyTap(key string, mods ...string)
	// TypeStr enters a string as simulated keystrokes.
	TypeStr(s string)
	// ClipboardRead returns the current system clipboard text.
	ClipboardRead() (string, error)
	// ClipboardWrite replaces the system clipboard text.
	ClipboardWrite(s string) error
}

// Robot is the robotgo-backed Driver.
type Robot struct{}

// NewRobot returns the real device driver.
func NewRobot() Robot {
	return Robot{}
}

func (Robot) Move(x, y int, seconds float64) {
	if seconds <= 0 {
		robotgo.Move(x, y)
		return
	}
	robotgo.MoveSmooth(x, y)
}

func (Robot) Click(x, y int, button string, double bool) {
	robotgo.Move(x, y)
	robotgo.MilliSleep(50)
	robotgo.Click(button, double)
}

func (Robot) Scroll(ticks int) {
	if ticks < 0 {
		robotgo.ScrollDir(-ticks, "down")
	} else if ticks > 0 {
		robotgo.ScrollDir(ticks, "up")
	}
}

func (Robot) KeyTap(key string, mods ...string) {
	args := make([]interface{}, len(mods))
	for i, m := range mods {
		args[i] = m
	}
	robotgo.KeyTap(key, args...)
}

func (Robot) TypeStr(s string) {
	robotgo.TypeStr(s)
}

func (Robot) ClipboardRead() (string, error) {
	return robotgo.ReadAll()
}

func (Robot) ClipboardWrite(s string) error {
	return robotgo.WriteAll(s)
}
