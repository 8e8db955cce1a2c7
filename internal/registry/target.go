package registry

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
)

// Kind selects the detection strategy for a target.
type Kind string

const (
	// KindVisual matches a template image against the screen.
	KindVisual Kind = "visual"
	// KindText locates a search string via OCR.
	KindText Kind = "text"
)

// Action is the pointer action performed at a matched location.
type Action string

const (
	ActionClick       Action = "click"
	ActionDoubleClick Action = "double_click"
	ActionRightClick  Action = "right_click"
)

// Condition controls how a group combines its member results.
type Condition string

const (
	// CondAll triggers only when every resolvable member matches.
	CondAll Condition = "all"
	// CondAny triggers on the first matching member, in member order.
	CondAny Condition = "any"
)

// Region is a rectangle in full-screen pixel coordinates, encoded in JSON
// as the array [x1,y1,x2,y2].
type Region struct {
	X1, Y1, X2, Y2 int
}

// MarshalJSON encodes the region as a four-element array.
func (r Region) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{r.X1, r.Y1, r.X2, r.Y2})
}

// UnmarshalJSON decodes a four-element array into the region.
func (r *Region) UnmarshalJSON(data []byte) error {
	var arr [4]int
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("region must be [x1,y1,x2,y2]: %w", err)
	}
	r.X1, r.Y1, r.X2, r.Y2 = arr[0], arr[1], arr[2], arr[3]
	return nil
}

// Clamp normalizes the region (x1<=x2, y1<=y2) and clips it to bounds.
// The result may be empty if the region lies entirely outside bounds.
func (r Region) Clamp(bounds image.Rectangle) Region {
	c := r
	if c.X1 > c.X2 {
		c.X1, c.X2 = c.X2, c.X1
	}
	if c.Y1 > c.Y2 {
		c.Y1, c.Y2 = c.Y2, c.Y1
	}
	c.X1 = clampInt(c.X1, bounds.Min.X, bounds.Max.X)
	c.Y1 = clampInt(c.Y1, bounds.Min.Y, bounds.Max.Y)
	c.X2 = clampInt(c.X2, c.X1, bounds.Max.X)
	c.Y2 = clampInt(c.Y2, c.Y1, bounds.Max.Y)
	return c
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Center returns the midpoint of the region.
func (r Region) Center() image.Point {
	return image.Pt((r.X1+r.X2)/2, (r.Y1+r.Y2)/2)
}

// Empty reports whether the region has zero area.
func (r Region) Empty() bool {
	return r.X1 >= r.X2 || r.Y1 >= r.Y2
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Target is one registered detection+action rule.
type Target struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// TemplatePath is the template image file for visual targets.
	TemplatePath string `json:"template_path,omitempty"`
	// SearchText is the query string for text targets.
	SearchText string `json:"search_text,omitempty"`
	// Confidence is the visual match threshold, in (0,1].
	Confidence float64 `json:"confidence"`

	Action  Action `json:"action"`
	Enabled bool   `json:"enabled"`
	// Cooldown is the minimum number of seconds between two successful
	// dispatches for this target.
	Cooldown float64 `json:"cooldown"`

	// SearchRegion restricts detection to a screen area. Nil means whole screen.
	SearchRegion *Region `json:"search_region,omitempty"`

	// AutoScroll enables the scroll-and-retry search when the direct search misses.
	AutoScroll bool `json:"auto_scroll"`
	// ScrollRegion is where scrolling happens. Nil falls back to SearchRegion,
	// then to the screen center.
	ScrollRegion *Region `json:"scroll_region,omitempty"`
	// MaxScrolls bounds the number of scroll attempts.
	MaxScrolls int `json:"max_scrolls"`

	// TypeText, when non-empty, is typed after the pointer action.
	TypeText string `json:"type_text,omitempty"`
	// TypeDelay is the pause in seconds between the pointer action and typing.
	TypeDelay float64 `json:"type_delay"`
	// PressConfirm sends the confirm/enter key after typing.
	PressConfirm bool `json:"press_confirm"`
}

// NewTarget creates a target with a fresh ID and the standard defaults.
func NewTarget(name string, kind Kind, action Action) Target {
	return Target{
		ID:           NewID(),
		Name:         name,
		Kind:         kind,
		Action:       action,
		Confidence:   0.8,
		Enabled:      true,
		Cooldown:     3.0,
		MaxScrolls:   10,
		TypeDelay:    0.5,
		PressConfirm: true,
	}
}

// UnmarshalJSON applies defaults for fields absent from older documents.
func (t *Target) UnmarshalJSON(data []byte) error {
	type alias Target
	tmp := alias{
		Confidence:   0.8,
		Enabled:      true,
		Cooldown:     3.0,
		MaxScrolls:   10,
		TypeDelay:    0.5,
		PressConfirm: true,
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*t = Target(tmp)
	return nil
}

// Validate checks the target's invariants.
func (t *Target) Validate() error {
	switch t.Kind {
	case KindVisual, KindText:
	default:
		return fmt.Errorf("unknown target kind %q", t.Kind)
	}
	switch t.Action {
	case ActionClick, ActionDoubleClick, ActionRightClick:
	default:
		return fmt.Errorf("unknown action %q", t.Action)
	}
	if t.Kind == KindVisual && (t.Confidence <= 0 || t.Confidence > 1) {
		return fmt.Errorf("confidence %v outside (0,1]", t.Confidence)
	}
	if t.Cooldown < 0 {
		return fmt.Errorf("negative cooldown %v", t.Cooldown)
	}
	if t.AutoScroll && t.MaxScrolls < 1 {
		return fmt.Errorf("max_scrolls must be >= 1 when auto_scroll is set, got %d", t.MaxScrolls)
	}
	return nil
}

// Group combines two or more targets under an All/Any condition with its
// own action and cooldown.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MemberIDs []string  `json:"member_ids"`
	Condition Condition `json:"condition"`
	Action    Action    `json:"action"`
	Enabled   bool      `json:"enabled"`
	Cooldown  float64   `json:"cooldown"`
}

// NewGroup creates a group with a fresh ID and the standard defaults.
func NewGroup(name string, memberIDs []string, cond Condition, action Action) Group {
	return Group{
		ID:        NewID(),
		Name:      name,
		MemberIDs: memberIDs,
		Condition: cond,
		Action:    action,
		Enabled:   true,
		Cooldown:  3.0,
	}
}

// UnmarshalJSON applies defaults for fields absent from older documents.
func (g *Group) UnmarshalJSON(data []byte) error {
	type alias Group
	tmp := alias{Enabled: true, Cooldown: 3.0}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*g = Group(tmp)
	return nil
}

// Validate checks the group's invariants. Member IDs are not resolved here;
// dangling references are dropped at evaluation time by the monitor.
func (g *Group) Validate() error {
	switch g.Condition {
	case CondAll, CondAny:
	default:
		return fmt.Errorf("unknown condition %q", g.Condition)
	}
	switch g.Action {
	case ActionClick, ActionDoubleClick, ActionRightClick:
	default:
		return fmt.Errorf("unknown action %q", g.Action)
	}
	if len(g.MemberIDs) < 2 {
		return fmt.Errorf("group needs at least 2 members, got %d", len(g.MemberIDs))
	}
	if g.Cooldown < 0 {
		return fmt.Errorf("negative cooldown %v", g.Cooldown)
	}
	return nil
}

// NewID returns a stable 8-character hex identifier.
func NewID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms; keep the
		// signature simple and fall back to a fixed marker.
		return "00000000"
	}
	return hex.EncodeToString(b[:])
}
