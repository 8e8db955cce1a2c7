package input

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/minsu-lab/screenwatch/internal/registry"
)

// fakeDriver records every device operation in order.
type fakeDriver struct {
	ops       []string
	clipboard string
	readErr   error
	writeErr  error
}

func (f *fakeDriver) Move(x, y int, seconds float64) {
	f.ops = append(f.ops, fmt.Sprintf("move(%d,%d)", x, y))
}

func (f *fakeDriver) Click(x, y int, button string, double bool) {
	f.ops = append(f.ops, fmt.Sprintf("click(%d,%d,%s,double=%v)", x, y, button, double))
}

func (f *fakeDriver) Scroll(ticks int) {
	f.ops = append(f.ops, fmt.Sprintf("scroll(%d)", ticks))
}

func (f *fakeDriver) KeyTap(key string, mods ...string) {
	f.ops = append(f.ops, fmt.Sprintf("key(%s)", strings.Join(append([]string{key}, mods...), "+")))
}

func (f *fakeDriver) TypeStr(s string) {
	f.ops = append(f.ops, "type("+s+")")
}

func (f *fakeDriver) ClipboardRead() (string, error) {
	f.ops = append(f.ops, "clip-read")
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.clipboard, nil
}

func (f *fakeDriver) ClipboardWrite(s string) error {
	f.ops = append(f.ops, "clip-write("+s+")")
	if f.writeErr != nil {
		return f.writeErr
	}
	f.clipboard = s
	return nil
}

func newTestDispatcher(drv *fakeDriver) *Dispatcher {
	return New(drv, WithSleep(func(time.Duration) {}))
}

func TestPerform_PointerActions(t *testing.T) {
	tests := []struct {
		name   string
		action registry.Action
		want   string
	}{
		{"click", registry.ActionClick, "click(10,20,left,double=false)"},
		{"double click", registry.ActionDoubleClick, "click(10,20,left,double=true)"},
		{"right click", registry.ActionRightClick, "click(10,20,right,double=false)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := &fakeDriver{}
			d := newTestDispatcher(drv)
			if err := d.Perform(tt.action, 10, 20, Options{}); err != nil {
				t.Fatalf("Perform failed: %v", err)
			}
			if len(drv.ops) != 1 || drv.ops[0] != tt.want {
				t.Errorf("ops: got %v, want [%s]", drv.ops, tt.want)
			}
		})
	}
}

func TestPerform_UnknownAction(t *testing.T) {
	d := newTestDispatcher(&fakeDriver{})
	if err := d.Perform(registry.Action("hover"), 0, 0, Options{}); err == nil {
		t.Error("Perform should reject an unknown action")
	}
}

func TestPerform_ASCIITypingNeverTouchesClipboard(t *testing.T) {
	drv := &fakeDriver{clipboard: "precious"}
	d := newTestDispatcher(drv)

	err := d.Perform(registry.ActionClick, 5, 5, Options{
		TypeText:     "ok!",
		PressConfirm: true,
	})
	if err != nil {
		t.Fatalf("Perform failed: %v", err)
	}

	want := []string{
		"click(5,5,left,double=false)",
		"type(o)", "type(k)", "type(!)",
		"key(enter)",
	}
	if len(drv.ops) != len(want) {
		t.Fatalf("ops: got %v, want %v", drv.ops, want)
	}
	for i := range want {
		if drv.ops[i] != want[i] {
			t.Errorf("op %d: got %s, want %s", i, drv.ops[i], want[i])
		}
	}
	if drv.clipboard != "precious" {
		t.Errorf("clipboard changed to %q during ASCII entry", drv.clipboard)
	}
}

func TestPerform_NonASCIIUsesClipboardRoundTrip(t *testing.T) {
	drv := &fakeDriver{clipboard: "original"}
	d := newTestDispatcher(drv)

	err := d.Perform(registry.ActionClick, 5, 5, Options{
		TypeText:     "안녕하세요",
		PressConfirm: false,
	})
	if err != nil {
		t.Fatalf("Perform failed: %v", err)
	}

	want := []string{
		"click(5,5,left,double=false)",
		"clip-read",
		"clip-write(안녕하세요)",
		"key(v+" + pasteModifier() + ")",
		"clip-write(original)",
	}
	if len(drv.ops) != len(want) {
		t.Fatalf("ops: got %v, want %v", drv.ops, want)
	}
	for i := range want {
		if drv.ops[i] != want[i] {
			t.Errorf("op %d: got %s, want %s", i, drv.ops[i], want[i])
		}
	}
	if drv.clipboard != "original" {
		t.Errorf("clipboard not restored: %q", drv.clipboard)
	}
}

func TestPerform_ClipboardReadFailureIsDegradedNotFatal(t *testing.T) {
	var notices []string
	drv := &fakeDriver{readErr: errors.New("clipboard busy")}
	d := New(drv,
		WithSleep(func(time.Duration) {}),
		WithLog(func(format string, args ...any) {
			notices = append(notices, fmt.Sprintf(format, args...))
		}),
	)

	err := d.Perform(registry.ActionClick, 0, 0, Options{TypeText: "테스트"})
	if err != nil {
		t.Fatalf("Perform should swallow a clipboard read failure, got %v", err)
	}
	if len(notices) != 1 {
		t.Errorf("degraded notices: got %d, want 1", len(notices))
	}
	// The paste itself must still have happened.
	found := false
	for _, op := range drv.ops {
		if op == "key(v+"+pasteModifier()+")" {
			found = true
		}
	}
	if !found {
		t.Errorf("paste shortcut missing from ops %v", drv.ops)
	}
}

func TestPerform_ClipboardWriteFailureIsFatal(t *testing.T) {
	drv := &fakeDriver{writeErr: errors.New("no clipboard")}
	d := newTestDispatcher(drv)

	err := d.Perform(registry.ActionClick, 0, 0, Options{TypeText: "テキスト"})
	if err == nil {
		t.Error("Perform should fail when the text cannot reach the clipboard")
	}
}

func TestPerform_ConfirmAfterTyping(t *testing.T) {
	drv := &fakeDriver{}
	d := newTestDispatcher(drv)

	if err := d.Perform(registry.ActionClick, 0, 0, Options{TypeText: "a"}); err != nil {
		t.Fatal(err)
	}
	for _, op := range drv.ops {
		if op == "key(enter)" {
			t.Error("confirm key sent although PressConfirm was false")
		}
	}
}

func TestScrollPrimitives(t *testing.T) {
	drv := &fakeDriver{}
	d := newTestDispatcher(drv)

	d.Move(100, 200, 0.1)
	d.ScrollDown(3)
	d.ScrollUp(9)

	want := []string{"move(100,200)", "scroll(-3)", "scroll(9)"}
	if len(drv.ops) != len(want) {
		t.Fatalf("ops: got %v, want %v", drv.ops, want)
	}
	for i := range want {
		if drv.ops[i] != want[i] {
			t.Errorf("op %d: got %s, want %s", i, drv.ops[i], want[i])
		}
	}
}

func TestIsASCII(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"hello world 123!", true},
		{"tab\tand\nnewline", true},
		{"café", false},
		{"한국어", false},
		{"mixed 値", false},
	}
	for _, tt := range tests {
		if got := isASCII(tt.in); got != tt.want {
			t.Errorf("isASCII(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}
