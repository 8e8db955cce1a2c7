package input

import (
	"fmt"
	"runtime"
	"time"
	"unicode"

	"github.com/minsu-lab/screenwatch/internal/registry"
)

const (
	// defaultPreDelay is the pause before the pointer action.
	defaultPreDelay = 200 * time.Millisecond
	// confirmDelay is the pause between typed text and the confirm key.
	confirmDelay = 100 * time.Millisecond
	// pasteDelay gives the target application time to consume the paste
	// before the clipboard is restored.
	pasteDelay = 100 * time.Millisecond
	// charInterval spaces simulated keystrokes for ASCII entry.
	charInterval = 20 * time.Millisecond
	// ScrollStep is the number of ticks issued per scroll-retry attempt.
	ScrollStep = 3
)

// Options configures the optional typing phase of a dispatch.
type Options struct {
	// PreDelay overrides the pause before the pointer action;
	// zero means the 200ms default.
	PreDelay time.Duration
	// TypeText, when non-empty, is entered after the pointer action.
	TypeText string
	// TypeDelay is the pause between the pointer action and typing.
	TypeDelay time.Duration
	// PressConfirm sends the enter key after typing.
	PressConfirm bool
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithSleep substitutes the sleep function; tests pass a no-op.
func WithSleep(sleep func(time.Duration)) Option {
	return func(d *Dispatcher) { d.sleep = sleep }
}

// WithLog sets the sink for degraded-outcome notices (clipboard read or
// restore failures).
func WithLog(logf func(format string, args ...any)) Option {
	return func(d *Dispatcher) { d.logf = logf }
}

// Dispatcher serializes pointer and keyboard actions on a Driver.
type Dispatcher struct {
	drv   Driver
	sleep func(time.Duration)
	logf  func(format string, args ...any)
}

// New creates a dispatcher over drv.
func New(drv Driver, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		drv:   drv,
		sleep: time.Sleep,
		logf:  func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Perform executes the pointer action at (x, y), then the optional typing
// phase described by opts. It is the only path that touches the device, and
// it is always called from a single goroutine.
func (d *Dispatcher) Perform(action registry.Action, x, y int, opts Options) error {
	preDelay := opts.PreDelay
	if preDelay == 0 {
		preDelay = defaultPreDelay
	}
	d.sleep(preDelay)

	switch action {
	case registry.ActionClick:
		d.drv.Click(x, y, "left", false)
	case registry.ActionDoubleClick:
		d.drv.Click(x, y, "left", true)
	case registry.ActionRightClick:
		d.drv.Click(x, y, "right", false)
	default:
		return fmt.Errorf("unknown action %q", action)
	}

	if opts.TypeText != "" {
		d.sleep(opts.TypeDelay)
		if err := d.enterText(opts.TypeText); err != nil {
			return err
		}
		if opts.PressConfirm {
			d.sleep(confirmDelay)
			d.drv.KeyTap("enter")
		}
	}
	return nil
}

// Move exposes the smoothed pointer move for the scroll-retry procedure.
func (d *Dispatcher) Move(x, y int, seconds float64) {
	d.drv.Move(x, y, seconds)
}

// ScrollDown issues ticks scroll-down ticks at the current pointer position.
func (d *Dispatcher) ScrollDown(ticks int) {
	d.drv.Scroll(-ticks)
}

// ScrollUp issues ticks scroll-up ticks at the current pointer position.
func (d *Dispatcher) ScrollUp(ticks int) {
	d.drv.Scroll(ticks)
}

// enterText injects text, choosing keystrokes for ASCII and a clipboard
// round-trip for everything else.
func (d *Dispatcher) enterText(text string) error {
	if isASCII(text) {
		for _, r := range text {
			d.drv.TypeStr(string(r))
			d.sleep(charInterval)
		}
		return nil
	}
	return d.pasteText(text)
}

// pasteText places text on the clipboard, issues the platform paste
// shortcut, and restores the previous clipboard contents. Failures to read
// or restore the original clipboard are degraded outcomes, not errors.
func (d *Dispatcher) pasteText(text string) error {
	saved, err := d.drv.ClipboardRead()
	if err != nil {
		d.logf("could not save clipboard before paste: %v", err)
		saved = ""
	}

	if err := d.drv.ClipboardWrite(text); err != nil {
		return fmt.Errorf("failed to place text on clipboard: %w", err)
	}

	d.drv.KeyTap("v", pasteModifier())
	d.sleep(pasteDelay)

	if err := d.drv.ClipboardWrite(saved); err != nil {
		d.logf("could not restore clipboard after paste: %v", err)
	}
	return nil
}

// pasteModifier returns the platform paste-shortcut modifier key.
func pasteModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}

// isASCII reports whether s encodes as pure 7-bit ASCII.
func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
