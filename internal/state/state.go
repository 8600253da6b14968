// Package state implements the per-(part,step) durable state manager
// (spec §4.9): dirty/outdated/clean classification driving the sequencer,
// and atomic persistence of each step's digests and assets.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/canonical/craft-parts-go/internal/dirs"
	"github.com/canonical/craft-parts-go/internal/errors"
	"github.com/canonical/craft-parts-go/internal/step"
)

// Record is the durable per-(part,step) state (spec §3 "PartState"):
// the properties digest used to detect a part-definition change, the
// project-options digest used to detect an engine-wide option change,
// step-specific side data (fetched revision, resolved package versions,
// layer hash, migrated file lists...), and the set of paths this step
// itself owns in a shared area (STAGE, PRIME).
type Record struct {
	Step                 step.Step         `json:"step"`
	PropertiesDigest     string            `json:"properties_digest"`
	ProjectOptionsDigest string            `json:"project_options_digest"`
	Assets               map[string]string `json:"assets,omitempty"`
	Files                []string          `json:"files,omitempty"`
	Directories          []string          `json:"directories,omitempty"`
}

// Manager owns every PartState record for a run; it is the single writer
// (spec §3 "Ownership").
type Manager struct {
	Dirs *dirs.ProjectDirs
}

// New creates a state Manager rooted at d.
func New(d *dirs.ProjectDirs) *Manager {
	return &Manager{Dirs: d}
}

func (m *Manager) path(partName string, s step.Step) string {
	return filepath.Join(m.Dirs.Part(partName).State(), s.String()+".json")
}

// Load reads the persisted record for (partName, s). A missing or corrupt
// file is treated as "no state for this step" rather than an error (spec
// §4.9: "Loading tolerates missing or corrupt files").
func (m *Manager) Load(partName string, s step.Step) (Record, bool) {
	data, err := os.ReadFile(m.path(partName, s))
	if err != nil {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false
	}
	return rec, true
}

// MarkDone atomically persists rec as the new state for (partName, s):
// write to a temp file in the same directory, fsync it, then rename over
// the destination (spec §4.9: "durable, atomically written"). A half
// written file must never be observable, since §7 treats state I/O
// failure as a first-class error kind.
func (m *Manager) MarkDone(partName string, s step.Step, rec Record) error {
	rec.Step = s
	dir := m.Dirs.Part(partName).State()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Classify(partName, s.String(), "", "", &errors.StateIOError{Part: partName, Step: s.String(), Err: err})
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Classify(partName, s.String(), "", "", &errors.StateIOError{Part: partName, Step: s.String(), Err: err})
	}

	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return errors.Classify(partName, s.String(), "", "", &errors.StateIOError{Part: partName, Step: s.String(), Err: err})
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Classify(partName, s.String(), "", "", &errors.StateIOError{Part: partName, Step: s.String(), Err: err})
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Classify(partName, s.String(), "", "", &errors.StateIOError{Part: partName, Step: s.String(), Err: err})
	}
	if err := tmp.Close(); err != nil {
		return errors.Classify(partName, s.String(), "", "", &errors.StateIOError{Part: partName, Step: s.String(), Err: err})
	}
	if err := os.Rename(tmpPath, m.path(partName, s)); err != nil {
		return errors.Classify(partName, s.String(), "", "", &errors.StateIOError{Part: partName, Step: s.String(), Err: err})
	}
	return nil
}

// Clean removes persisted state for every step >= fromStep for partName
// (spec §4.9 "clean(part, from_step)").
func (m *Manager) Clean(partName string, fromStep step.Step) error {
	for _, s := range step.All {
		if s.Before(fromStep) {
			continue
		}
		if err := os.Remove(m.path(partName, s)); err != nil && !os.IsNotExist(err) {
			return errors.Classify(partName, s.String(), "", "", &errors.StateIOError{Part: partName, Step: s.String(), Err: err})
		}
	}
	return nil
}

// Status is the classification is_dirty returns (spec §4.9 / §4.7).
type Status int

const (
	// Clean means the recorded state matches current inputs and no
	// upstream step has re-run; the planner should emit SKIP.
	Clean Status = iota
	// Dirty means there is no usable recorded state at all; the planner
	// should emit RUN.
	Dirty
	// Outdated means recorded state exists but is stale (properties
	// changed, or an upstream dependency re-ran); the planner should emit
	// RERUN.
	Outdated
)

func (s Status) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Outdated:
		return "outdated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Classify is the is_dirty query (spec §4.9): given the current properties
// and project-options digests for (partName, s), and whether any upstream
// contributor (an earlier step of the same part, or a dependency's STAGE)
// has been re-run this pass, decide clean/dirty/outdated and a reason.
func (m *Manager) Classify(partName string, s step.Step, currentProperties, currentProjectOptions string, upstreamRerun bool, upstreamReason string) (Status, string) {
	rec, ok := m.Load(partName, s)
	if !ok {
		return Dirty, "no recorded state"
	}
	if upstreamRerun {
		return Outdated, upstreamReason
	}
	if rec.PropertiesDigest != currentProperties {
		return Outdated, "properties changed"
	}
	if rec.ProjectOptionsDigest != currentProjectOptions {
		return Outdated, "project options changed"
	}
	return Clean, ""
}
