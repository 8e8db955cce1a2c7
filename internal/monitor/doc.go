// Package monitor runs the detection-and-dispatch control loop.
//
// One background goroutine repeatedly captures the screen, evaluates every
// enabled target and compound group against the same raster, and dispatches
// the configured pointer action when a detection succeeds. Per-target
// cooldowns, region-restricted search, the scroll-and-retry strategy, and
// All/Any group conditions all live here.
//
// # Lifecycle
//
// Stopped -> Running -> (Paused <-> Running) -> Stopped. Start spawns the
// worker; Stop cancels its context and joins with a bounded wait. The
// context is observed at iteration boundaries, between each target or group,
// and inside scroll-retry, so shutdown latency is bounded by a single
// matching call rather than a full registry pass.
//
// # Failure policy
//
// The loop degrades instead of crashing: a failed capture, a matcher fault,
// or a panic while processing one iteration is logged and the loop proceeds
// after the normal sleep. The only start-time failure is an empty registry.
//
// # Observability
//
// Status lines (start/stop/pause/resume, hits, scroll progress, group
// triggers, errors) go to a caller-supplied sink through a buffered,
// non-blocking hand-off; a slow sink drops lines rather than stalling the
// loop.
package monitor
