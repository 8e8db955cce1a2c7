package monitor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"

	"github.com/minsu-lab/screenwatch/internal/input"
	"github.com/minsu-lab/screenwatch/internal/ocr"
	"github.com/minsu-lab/screenwatch/internal/registry"
	"github.com/minsu-lab/screenwatch/internal/vision"
)

const (
	// minInterval is the floor for the polling cadence; it bounds CPU use
	// and input-device contention.
	minInterval     = 300 * time.Millisecond
	defaultInterval = time.Second
	// pauseSlice is how long the worker sleeps per check while paused.
	pauseSlice = 500 * time.Millisecond
	// defaultSettle is the wait after a scroll tick for content to settle.
	defaultSettle = 500 * time.Millisecond
	// stopTimeout bounds the join in Stop.
	stopTimeout = 3 * time.Second
	// moveSeconds smooths the pointer move to the scroll anchor.
	moveSeconds = 0.1
	// logBuffer sizes the non-blocking sink hand-off.
	logBuffer = 64
)

// ErrNoActiveEntries is returned by Start when the registry holds no
// enabled targets or groups.
var ErrNoActiveEntries = errors.New("monitor: no enabled targets or groups")

// Capture produces one full-screen raster on demand.
type Capture func() (image.Image, error)

// Sink receives human-readable, timestamped status lines.
type Sink func(line string)

// Config assembles an Engine. Registry, Dispatcher, and Capture are
// required; the rest default sensibly.
type Config struct {
	Registry   *registry.Manager
	Templates  *vision.TemplateCache
	Locator    *ocr.Locator
	Dispatcher *input.Dispatcher
	Capture    Capture
	Sink       Sink

	// Interval is the polling cadence, clamped to the 300ms floor.
	Interval time.Duration
	// Settle overrides the post-scroll settle wait; tests shorten it.
	Settle time.Duration
	// Now overrides the clock used for cooldowns and timestamps;
	// tests substitute a fake.
	Now func() time.Time
}

// Engine is the monitoring loop scheduler.
type Engine struct {
	reg        *registry.Manager
	matcher    vision.Matcher
	templates  *vision.TemplateCache
	locator    *ocr.Locator
	dispatcher *input.Dispatcher
	capture    Capture

	now    func() time.Time
	settle time.Duration

	mu      sync.Mutex // guards lifecycle state
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	paused atomic.Bool

	intervalMu sync.Mutex
	interval   time.Duration

	logCh chan string
}

// New builds an engine from cfg.
func New(cfg Config) (*Engine, error) {
	if cfg.Registry == nil || cfg.Dispatcher == nil || cfg.Capture == nil {
		return nil, errors.New("monitor: registry, dispatcher, and capture are required")
	}
	e := &Engine{
		reg:        cfg.Registry,
		templates:  cfg.Templates,
		locator:    cfg.Locator,
		dispatcher: cfg.Dispatcher,
		capture:    cfg.Capture,
		now:        cfg.Now,
		settle:     cfg.Settle,
		interval:   cfg.Interval,
		logCh:      make(chan string, logBuffer),
	}
	if e.templates == nil {
		e.templates = vision.NewTemplateCache()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.settle <= 0 {
		e.settle = defaultSettle
	}
	if e.interval <= 0 {
		e.interval = defaultInterval
	} else if e.interval < minInterval {
		e.interval = minInterval
	}
	if cfg.Sink != nil {
		go func() {
			for line := range e.logCh {
				cfg.Sink(line)
			}
		}()
	}
	return e, nil
}

// Running reports whether the worker goroutine is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Paused reports whether scanning is suspended.
func (e *Engine) Paused() bool {
	return e.paused.Load()
}

// Interval returns the current polling cadence.
func (e *Engine) Interval() time.Duration {
	e.intervalMu.Lock()
	defer e.intervalMu.Unlock()
	return e.interval
}

// SetInterval changes the polling cadence, clamped to the 300ms floor.
// It may be called while the loop is running; the new cadence applies from
// the next iteration.
func (e *Engine) SetInterval(d time.Duration) {
	if d < minInterval {
		d = minInterval
	}
	e.intervalMu.Lock()
	e.interval = d
	e.intervalMu.Unlock()
	e.log("poll interval set to %v", d)
}

// Start spawns the worker goroutine. Starting a running engine is a no-op.
// It fails only when the registry holds nothing enabled to watch.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	if len(e.reg.ActiveTargets()) == 0 && len(e.reg.ActiveGroups()) == 0 {
		return ErrNoActiveEntries
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true
	e.paused.Store(false)
	go e.run(ctx)
	e.log("monitoring started")
	return nil
}

// Stop signals termination and waits for the worker to exit, bounded by a
// 3-second join. Stopping a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		e.log("worker did not exit within %v", stopTimeout)
	}

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	e.paused.Store(false)
	e.log("monitoring stopped")
}

// Pause suspends scanning and dispatch until Resume. The worker keeps
// running but sleeps in short slices.
func (e *Engine) Pause() {
	if e.paused.CompareAndSwap(false, true) {
		e.log("monitoring paused")
	}
}

// Resume lifts a pause.
func (e *Engine) Resume() {
	if e.paused.CompareAndSwap(true, false) {
		e.log("monitoring resumed")
	}
}

// Toggle pauses a running engine or resumes a paused one.
func (e *Engine) Toggle() {
	if e.paused.Load() {
		e.Resume()
	} else {
		e.Pause()
	}
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)
	// The ledger lives and dies with the worker: cooldowns reset on restart.
	ledger := make(cooldownLedger)
	for {
		if ctx.Err() != nil {
			return
		}
		if e.paused.Load() {
			if !e.sleep(ctx, pauseSlice) {
				return
			}
			continue
		}
		e.iterate(ctx, ledger)
		if !e.sleep(ctx, e.Interval()) {
			return
		}
	}
}

// iterate processes one scheduling pass. A panic or error inside a single
// pass is logged and absorbed so one bad screenshot or matcher fault never
// terminates monitoring.
func (e *Engine) iterate(ctx context.Context, ledger cooldownLedger) {
	defer func() {
		if r := recover(); r != nil {
			e.log("iteration error: %v", r)
		}
	}()

	raster, err := e.capture()
	if err != nil {
		e.log("capture failed: %v", err)
		return
	}

	e.scanTargets(ctx, raster, ledger)
	e.scanGroups(ctx, raster, ledger)
}

func (e *Engine) scanTargets(ctx context.Context, raster image.Image, ledger cooldownLedger) {
	for _, t := range e.reg.ActiveTargets() {
		if ctx.Err() != nil {
			return
		}
		key := targetKey(t.ID)
		if !ledger.ready(key, seconds(t.Cooldown), e.now()) {
			continue
		}

		hit, found := e.findTarget(t, raster)
		scrolled := false
		if !found && t.AutoScroll {
			hit, found = e.findWithScroll(ctx, t, raster.Bounds())
			scrolled = true
		}
		if !found {
			continue
		}

		e.logHit(t, hit, raster, scrolled)
		err := e.dispatcher.Perform(t.Action, hit.X, hit.Y, input.Options{
			TypeText:     t.TypeText,
			TypeDelay:    seconds(t.TypeDelay),
			PressConfirm: t.PressConfirm,
		})
		if err != nil {
			e.log("'%s': action failed: %v", t.Name, err)
			continue
		}
		ledger.mark(key, e.now())
	}
}

// logHit reports a successful detection. Direct visual hits include an
// average-color summary of the matched window to make log review easier.
func (e *Engine) logHit(t registry.Target, hit image.Point, raster image.Image, scrolled bool) {
	if t.Kind == registry.KindVisual && !scrolled {
		if tmpl, ok := e.templates.Load(t.TemplatePath); ok {
			b := tmpl.Bounds()
			sum := vision.WindowColor(raster, hit, b.Dx(), b.Dy())
			e.log("'%s' found at (%d,%d) [%s], performing %s", t.Name, hit.X, hit.Y, sum, t.Action)
			return
		}
	}
	e.log("'%s' found at (%d,%d), performing %s", t.Name, hit.X, hit.Y, t.Action)
}

func (e *Engine) scanGroups(ctx context.Context, raster image.Image, ledger cooldownLedger) {
	for _, g := range e.reg.ActiveGroups() {
		if ctx.Err() != nil {
			return
		}
		key := groupKey(g.ID)
		if !ledger.ready(key, seconds(g.Cooldown), e.now()) {
			continue
		}

		// Resolve members, dropping dangling IDs. A group left with no
		// resolvable members is vacuously unsatisfiable, not an error.
		var members []registry.Target
		for _, id := range g.MemberIDs {
			t, ok := e.reg.Target(id)
			if !ok {
				e.log("group '%s': member %s no longer exists, skipping it", g.Name, id)
				continue
			}
			members = append(members, t)
		}
		if len(members) == 0 {
			continue
		}

		switch g.Condition {
		case registry.CondAll:
			// Every member is evaluated against the iteration raster;
			// no scroll-retry inside group evaluation.
			hits := make([]image.Point, 0, len(members))
			all := true
			for _, m := range members {
				pt, ok := e.findTarget(m, raster)
				if !ok {
					all = false
					break
				}
				hits = append(hits, pt)
			}
			if !all {
				continue
			}
			e.log("group '%s' satisfied (all of %d), performing %s", g.Name, len(members), g.Action)
			if err := e.dispatcher.Perform(g.Action, hits[0].X, hits[0].Y, input.Options{}); err != nil {
				e.log("group '%s': action failed: %v", g.Name, err)
				continue
			}
			ledger.mark(key, e.now())

		case registry.CondAny:
			for _, m := range members {
				pt, ok := e.findTarget(m, raster)
				if !ok {
					continue
				}
				e.log("group '%s' satisfied ('%s' matched), performing %s", g.Name, m.Name, g.Action)
				if err := e.dispatcher.Perform(g.Action, pt.X, pt.Y, input.Options{}); err != nil {
					e.log("group '%s': action failed: %v", g.Name, err)
					break
				}
				ledger.mark(key, e.now())
				break
			}
		}
	}
}

// findTarget locates one target in raster, honoring its search region.
// Hits inside a region are translated back to full-raster coordinates.
func (e *Engine) findTarget(t registry.Target, raster image.Image) (image.Point, bool) {
	search := raster
	var offset image.Point
	if t.SearchRegion != nil {
		r := t.SearchRegion.Clamp(raster.Bounds())
		if r.Empty() {
			return image.Point{}, false
		}
		offset = image.Pt(r.X1, r.Y1)
		search = imaging.Crop(raster, r.Rect())
	}

	var hit image.Point
	var found bool
	switch t.Kind {
	case registry.KindVisual:
		tmpl, ok := e.templates.Load(t.TemplatePath)
		if !ok {
			return image.Point{}, false
		}
		hit, _, found = e.matcher.FindBest(search, tmpl, t.Confidence)
	case registry.KindText:
		if e.locator == nil {
			return image.Point{}, false
		}
		hit, found = e.locator.FindText(search, t.SearchText)
	}
	if !found {
		return image.Point{}, false
	}
	return hit.Add(offset), true
}

// findWithScroll drives the scroll-and-retry search: move to the anchor,
// scroll down one step, wait for content to settle, recapture, re-search.
// On total miss it issues a compensating scroll-up of the full distance
// traveled, a best-effort reset that assumes no concurrent scrolling.
func (e *Engine) findWithScroll(ctx context.Context, t registry.Target, bounds image.Rectangle) (image.Point, bool) {
	anchor := scrollAnchor(t, bounds)
	e.log("'%s' not visible, scrolling to search...", t.Name)

	total := 0
	for i := 0; i < t.MaxScrolls; i++ {
		if ctx.Err() != nil {
			break
		}
		e.dispatcher.Move(anchor.X, anchor.Y, moveSeconds)
		e.dispatcher.ScrollDown(input.ScrollStep)
		total += input.ScrollStep
		if !e.sleep(ctx, e.settle) {
			break
		}

		raster, err := e.capture()
		if err != nil {
			e.log("recapture failed during scroll: %v", err)
			continue
		}
		if hit, ok := e.findTarget(t, raster); ok {
			e.log("'%s' found after %d scroll(s)", t.Name, i+1)
			return hit, true
		}
	}

	if total > 0 {
		e.dispatcher.Move(anchor.X, anchor.Y, moveSeconds)
		e.dispatcher.ScrollUp(total)
		e.log("'%s' not found while scrolling, scrolled back up", t.Name)
	}
	return image.Point{}, false
}

// scrollAnchor picks the point the pointer scrolls at: the scroll region's
// center, else the search region's center, else the screen center.
func scrollAnchor(t registry.Target, bounds image.Rectangle) image.Point {
	if t.ScrollRegion != nil {
		return t.ScrollRegion.Clamp(bounds).Center()
	}
	if t.SearchRegion != nil {
		return t.SearchRegion.Clamp(bounds).Center()
	}
	return image.Pt((bounds.Min.X+bounds.Max.X)/2, (bounds.Min.Y+bounds.Max.Y)/2)
}

// sleep waits d or until the context is canceled; it returns false on
// cancellation.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// log formats a timestamped status line and hands it to the sink without
// blocking; if the sink cannot keep up, the line is dropped.
func (e *Engine) log(format string, args ...any) {
	line := fmt.Sprintf("[%s] %s", e.now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case e.logCh <- line:
	default:
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
