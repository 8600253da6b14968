// Package projectvars implements project variables: user-defined string
// cells with at-most-one assignment, optionally restricted to a single
// "adopting" part (spec §3 "Project variables", §4.8 craftctl "set").
package projectvars

import (
	"fmt"
	"sort"
	"sync"
)

type cell struct {
	value       string
	assigned    bool
	adoptedBy   string
	hasAdoption bool
}

// Vars holds every project variable for one engine run. Safe for
// concurrent use, since scriptlets for independently-running parts may
// read and (if permitted) assign variables concurrently (spec §5).
type Vars struct {
	mu    sync.Mutex
	cells map[string]*cell
}

// New creates a Vars set seeded with the host's initial values. None of
// the seeded variables are considered "assigned" yet — a scriptlet's
// first `craftctl set` still counts as the one permitted assignment,
// consistent with spec §3's "mutable exactly once per variable".
func New(initial map[string]string) *Vars {
	v := &Vars{cells: map[string]*cell{}}
	for name, val := range initial {
		v.cells[name] = &cell{value: val}
	}
	return v
}

// Declare registers name as a known variable, optionally restricting
// future assignment to adoptingPart. Declaring an already-declared
// variable is a no-op if the adoption restriction matches, and an error
// otherwise.
func (v *Vars) Declare(name string, adoptingPart string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	c, ok := v.cells[name]
	if !ok {
		c = &cell{}
		v.cells[name] = c
	}
	if adoptingPart != "" {
		if c.hasAdoption && c.adoptedBy != adoptingPart {
			return fmt.Errorf("project variable %q is already adopted by part %q", name, c.adoptedBy)
		}
		c.hasAdoption = true
		c.adoptedBy = adoptingPart
	}
	return nil
}

// Get reads a variable's current value. Reads are always allowed (spec
// §3: "Read always allowed"), including for variables never declared,
// which read as "".
func (v *Vars) Get(name string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok := v.cells[name]; ok {
		return c.value
	}
	return ""
}

// Set assigns name's value from within partName's scriptlet context. It
// fails if the variable was already assigned, or if it carries an
// adopting-part restriction that partName does not satisfy (spec §3,
// §4.8 "craftctl set").
func (v *Vars) Set(partName, name, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	c, ok := v.cells[name]
	if !ok {
		c = &cell{}
		v.cells[name] = c
	}
	if c.hasAdoption && c.adoptedBy != partName {
		return fmt.Errorf("project variable %q may only be set by part %q, not %q", name, c.adoptedBy, partName)
	}
	if c.assigned {
		return fmt.Errorf("project variable %q was already assigned and cannot be set again", name)
	}
	c.value = value
	c.assigned = true
	return nil
}

// Names returns every declared variable name, sorted.
func (v *Vars) Names() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, 0, len(v.cells))
	for name := range v.cells {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a point-in-time copy of every variable's value, for
// exposing a consistent view to the step execution environment (§6).
func (v *Vars) Snapshot() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]string, len(v.cells))
	for name, c := range v.cells {
		out[name] = c.value
	}
	return out
}
