package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Document is the on-disk shape of the registry.
type Document struct {
	Targets []Target `json:"targets"`
	Groups  []Group  `json:"groups"`
}

// Manager owns the ordered target and group collections and persists them
// after every mutation. It is safe for concurrent use: the monitoring loop
// reads snapshots while the embedding application mutates.
type Manager struct {
	mu      sync.RWMutex
	path    string
	targets []Target
	groups  []Group
}

// NewManager creates a manager that persists to path. The file is not read
// until Load is called.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads the registry document from disk. A missing file leaves the
// registry empty and is not an error. A document that is a bare JSON array
// of targets (the legacy format) loads with an empty group list. An
// unparseable document leaves the registry empty and returns the parse error.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read registry: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.targets = nil
	m.groups = nil

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		// Legacy format: bare list of targets, no groups.
		var targets []Target
		if err := json.Unmarshal(data, &targets); err != nil {
			return fmt.Errorf("failed to parse legacy registry: %w", err)
		}
		m.targets = targets
		return nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse registry: %w", err)
	}
	m.targets = doc.Targets
	m.groups = doc.Groups
	return nil
}

// Save writes the registry document to disk, creating the parent directory
// if needed.
func (m *Manager) Save() error {
	m.mu.RLock()
	doc := Document{
		Targets: append([]Target(nil), m.targets...),
		Groups:  append([]Group(nil), m.groups...),
	}
	m.mu.RUnlock()

	if doc.Targets == nil {
		doc.Targets = []Target{}
	}
	if doc.Groups == nil {
		doc.Groups = []Group{}
	}

	if dir := filepath.Dir(m.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create registry directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}

// AddTarget validates and appends a target, then saves.
func (m *Manager) AddTarget(t Target) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.targets = append(m.targets, t)
	m.mu.Unlock()
	return m.Save()
}

// RemoveTarget deletes a target by ID and strips the ID from every group's
// member list, then saves. Removing an unknown ID is a no-op.
func (m *Manager) RemoveTarget(id string) error {
	m.mu.Lock()
	kept := m.targets[:0]
	for _, t := range m.targets {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	m.targets = kept
	for i := range m.groups {
		// Allocate fresh so snapshots handed to the loop are untouched.
		members := make([]string, 0, len(m.groups[i].MemberIDs))
		for _, mid := range m.groups[i].MemberIDs {
			if mid != id {
				members = append(members, mid)
			}
		}
		m.groups[i].MemberIDs = members
	}
	m.mu.Unlock()
	return m.Save()
}

// UpdateTarget replaces the stored target with the same ID, then saves.
func (m *Manager) UpdateTarget(t Target) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	found := false
	for i := range m.targets {
		if m.targets[i].ID == t.ID {
			m.targets[i] = t
			found = true
			break
		}
	}
	m.mu.Unlock()
	if !found {
		return fmt.Errorf("unknown target %q", t.ID)
	}
	return m.Save()
}

// ToggleTarget flips a target's enabled flag, then saves.
func (m *Manager) ToggleTarget(id string) error {
	m.mu.Lock()
	found := false
	for i := range m.targets {
		if m.targets[i].ID == id {
			m.targets[i].Enabled = !m.targets[i].Enabled
			found = true
			break
		}
	}
	m.mu.Unlock()
	if !found {
		return fmt.Errorf("unknown target %q", id)
	}
	return m.Save()
}

// Target returns a copy of the target with the given ID.
func (m *Manager) Target(id string) (Target, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.targets {
		if t.ID == id {
			return t, true
		}
	}
	return Target{}, false
}

// Targets returns a copy of all targets in registry order.
func (m *Manager) Targets() []Target {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Target(nil), m.targets...)
}

// ActiveTargets returns copies of the enabled targets in registry order.
func (m *Manager) ActiveTargets() []Target {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var active []Target
	for _, t := range m.targets {
		if t.Enabled {
			active = append(active, t)
		}
	}
	return active
}

// AddGroup validates and appends a group, then saves.
func (m *Manager) AddGroup(g Group) error {
	if err := g.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.groups = append(m.groups, g)
	m.mu.Unlock()
	return m.Save()
}

// RemoveGroup deletes a group by ID, then saves.
func (m *Manager) RemoveGroup(id string) error {
	m.mu.Lock()
	kept := m.groups[:0]
	for _, g := range m.groups {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	m.groups = kept
	m.mu.Unlock()
	return m.Save()
}

// ToggleGroup flips a group's enabled flag, then saves.
func (m *Manager) ToggleGroup(id string) error {
	m.mu.Lock()
	found := false
	for i := range m.groups {
		if m.groups[i].ID == id {
			m.groups[i].Enabled = !m.groups[i].Enabled
			found = true
			break
		}
	}
	m.mu.Unlock()
	if !found {
		return fmt.Errorf("unknown group %q", id)
	}
	return m.Save()
}

// Group returns a copy of the group with the given ID.
func (m *Manager) Group(id string) (Group, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// Groups returns a copy of all groups in registry order.
func (m *Manager) Groups() []Group {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Group(nil), m.groups...)
}

// ActiveGroups returns copies of the enabled groups in registry order.
func (m *Manager) ActiveGroups() []Group {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var active []Group
	for _, g := range m.groups {
		if g.Enabled {
			active = append(active, g)
		}
	}
	return active
}
