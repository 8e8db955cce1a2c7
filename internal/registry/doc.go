// Package registry holds the persistent data model consumed by the monitor:
// detection targets, compound groups, and the manager that owns both.
//
// # Targets and Groups
//
// A Target is one registered detection+action rule. Visual targets match a
// template image against the captured screen; text targets locate a string
// via OCR. A Group combines two or more targets under an All/Any condition
// with its own action and cooldown.
//
// # Ownership
//
// Targets and groups are created and mutated exclusively by the embedding
// application (CLI, UI, remote caller). The monitoring loop only reads them,
// one scheduling pass at a time, through the snapshot accessors on Manager.
// Manager methods are safe for concurrent use.
//
// # Persistence
//
// The registry is saved as a JSON document with two ordered collections,
// "targets" and "groups". Regions are encoded as [x1,y1,x2,y2] arrays.
// A legacy document consisting of a bare target list (no groups) still
// loads; it is treated as {targets: <list>, groups: []}.
package registry
