package monitor

import "time"

// entryKind distinguishes the two key namespaces of the cooldown ledger,
// so a target and a group with the same ID never collide.
type entryKind uint8

const (
	entryTarget entryKind = iota
	entryGroup
)

// ledgerKey identifies one cooldown entry.
type ledgerKey struct {
	kind entryKind
	id   string
}

func targetKey(id string) ledgerKey { return ledgerKey{kind: entryTarget, id: id} }
func groupKey(id string) ledgerKey  { return ledgerKey{kind: entryGroup, id: id} }

// cooldownLedger maps each target/group to the time of its last successful
// dispatch. It is owned by the loop goroutine, created empty at loop start
// and discarded at loop stop; it is never persisted.
type cooldownLedger map[ledgerKey]time.Time

// ready reports whether the cooldown for key has fully elapsed at now.
// A key with no recorded dispatch is always ready.
func (l cooldownLedger) ready(key ledgerKey, cooldown time.Duration, now time.Time) bool {
	last, ok := l[key]
	if !ok {
		return true
	}
	return now.Sub(last) >= cooldown
}

// mark records a successful dispatch for key at now.
func (l cooldownLedger) mark(key ledgerKey, now time.Time) {
	l[key] = now
}
